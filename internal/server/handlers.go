package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fashionsearch "github.com/menta2k/fashion-search"
	"github.com/menta2k/fashion-search/pkg/capture"
	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/query"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/search"
	"github.com/menta2k/fashion-search/pkg/types"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// Size is a container size in CSS pixels
type Size struct {
	Width  float64 `json:"width" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

// PreviewRequest asks for the image region and preview of a drawn selection
type PreviewRequest struct {
	Image     string              `json:"image" binding:"required"`
	Container Size                `json:"container" binding:"required"`
	Selection region.ScreenRegion `json:"selection"`
}

// PreviewResponse describes a committed selection
type PreviewResponse struct {
	Region  region.ImageRegion `json:"region"`
	Frame   region.Frame       `json:"frame"`
	Preview string             `json:"preview,omitempty"`
	Width   int                `json:"width,omitempty"`
	Height  int                `json:"height,omitempty"`
}

// UploadResponse returns a validated upload as a data URL
type UploadResponse struct {
	DataURL string `json:"dataUrl"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
}

// SearchRequest starts a search in a session
type SearchRequest struct {
	Text string `json:"text"`
	// Image is a data URL; empty for a text search
	Image       string              `json:"image"`
	Region      *region.ImageRegion `json:"region"`
	Descriptors *types.Descriptors  `json:"descriptors"`
	ItemType    string              `json:"itemType"`
	// Form builds the text from structured fields when Text is empty
	Form *query.Form `json:"form"`
}

// SessionResponse is returned for session reads and search submissions
type SessionResponse struct {
	ID    string       `json:"id"`
	State search.State `json:"state"`
}

// ItemTypeInfo is one catalog entry
type ItemTypeInfo struct {
	Name     string            `json:"name"`
	Title    string            `json:"title"`
	Category string            `json:"category"`
	Price    catalog.PriceBand `json:"price"`
}

// CatalogResponse lists the item types and descriptor vocabularies
type CatalogResponse struct {
	ItemTypes []ItemTypeInfo `json:"itemTypes"`
	Colors    []string       `json:"colors"`
	Styles    []string       `json:"styles"`
	Patterns  []string       `json:"patterns"`
	Materials []string       `json:"materials"`
	Sizes     []string       `json:"sizes"`
}

// StatusResponse reports server health
type StatusResponse struct {
	Version  string `json:"version"`
	Backend  string `json:"backend"`
	Vision   string `json:"vision"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

func (s *Server) status(c *gin.Context) {
	vision := "ok"
	if s.client != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.client.Ping(ctx); err != nil {
			vision = "unreachable"
		}
	}

	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()

	c.JSON(http.StatusOK, StatusResponse{
		Version:  fashionsearch.Version,
		Backend:  s.backend,
		Vision:   vision,
		Sessions: n,
		Uptime:   s.now().Sub(s.started).Round(time.Second).String(),
	})
}

func (s *Server) catalog(c *gin.Context) {
	cat := s.fs.Catalog()
	items := cat.ItemTypes()
	resp := CatalogResponse{
		ItemTypes: make([]ItemTypeInfo, 0, len(items)),
		Colors:    cat.Colors(),
		Styles:    cat.Styles(),
		Patterns:  cat.Patterns(),
		Materials: cat.Materials(),
		Sizes:     query.Sizes,
	}
	for _, it := range items {
		resp.ItemTypes = append(resp.ItemTypes, ItemTypeInfo{
			Name:     it.Name,
			Title:    it.Title,
			Category: it.Category.String(),
			Price:    cat.PriceBand(it.Name),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// upload accepts a multipart "image" file and returns it as a data URL
func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing image file"})
		return
	}
	if fh.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	img, err := s.fs.Upload(fh.Header.Get("Content-Type"), data)
	if err != nil {
		s.log.WithError(err).WithField("filename", fh.Filename).Info("upload rejected")
		if errors.Is(err, capture.ErrUnsupportedType) {
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "Please select an image file"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		DataURL: img.DataURL,
		Width:   img.Width(),
		Height:  img.Height(),
		Format:  img.Info.Format,
	})
}

func (s *Server) preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	img, err := s.fs.FromDataURL(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	sel, err := s.fs.Select(img.Image, req.Selection, req.Container.Width, req.Container.Height)
	switch {
	case errors.Is(err, fashionsearch.ErrSelectionTooSmall), errors.Is(err, region.ErrNoRegion):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := PreviewResponse{Region: sel.Region, Frame: sel.Frame}
	if sel.Preview != nil {
		dataURL, err := s.processor.EncodeDataURL(sel.Preview.Image, s.cfg.Region.PreviewFormat, s.cfg.Region.PreviewQuality)
		if err != nil {
			s.log.WithError(err).Warn("preview encoding failed")
		} else {
			resp.Preview = dataURL
			resp.Width = sel.Preview.Width
			resp.Height = sel.Preview.Height
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createSession(c *gin.Context) {
	id := uuid.NewString()
	sess := s.fs.NewSession()

	s.Sweep()
	s.addSession(id, sess)

	c.JSON(http.StatusCreated, SessionResponse{ID: id, State: sess.Snapshot()})
}

func (s *Server) lookup(c *gin.Context) (string, *search.Session, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return "", nil, false
	}

	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		e.seen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return "", nil, false
	}
	return id, e.session, true
}

func (s *Server) getSession(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: id, State: sess.Snapshot()})
}

func (s *Server) deleteSession(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}
	sess.Cancel()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) search(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}

	var body SearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	req := search.Request{
		Text:        body.Text,
		Region:      body.Region,
		Descriptors: body.Descriptors,
		ItemType:    body.ItemType,
	}
	if req.Text == "" && body.Form != nil {
		req.Text = body.Form.Text()
		if req.ItemType == "" {
			req.ItemType, _ = s.fs.Engine().Classifier().ClassifyItemType(query.Tokenize(body.Form.ItemType))
		}
	}
	if body.Image != "" {
		img, err := s.fs.FromDataURL(body.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		req.Image = img.Image
	}

	// The search outlives this request; it is bound to the server instead.
	if _, err := sess.Submit(s.ctx, req); err != nil {
		s.submitError(c, err)
		return
	}
	s.respond(c, id, sess)
}

func (s *Server) retry(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}
	if _, err := sess.Retry(s.ctx); err != nil {
		s.submitError(c, err)
		return
	}
	s.respond(c, id, sess)
}

func (s *Server) submitError(c *gin.Context, err error) {
	if errors.Is(err, search.ErrEmptyInput) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please provide an image or a description"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// respond returns the loading state, or the settled state when ?wait=true
func (s *Server) respond(c *gin.Context, id string, sess *search.Session) {
	wait, _ := strconv.ParseBool(c.Query("wait"))
	if !wait {
		c.JSON(http.StatusAccepted, SessionResponse{ID: id, State: sess.Snapshot()})
		return
	}

	state, err := sess.Wait(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusRequestTimeout, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: id, State: state})
}
