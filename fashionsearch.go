// Package fashionsearch wires together the pieces of a visual fashion search:
// capturing a photo, mapping a selection drawn over its letterboxed display
// back to image pixels, rendering a cropped preview and generating ranked
// results for the selection and an optional text description.
//
// Basic usage:
//
//	fs := fashionsearch.New()
//
//	img, err := fs.Upload("image/jpeg", data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// selection drawn in a 600x400 container
//	sel, err := fs.Select(img.Image, region.ScreenRegion{X: 250, Y: 150, Width: 100, Height: 100}, 600, 400)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state, err := fs.Search(ctx, search.Request{Image: img.Image, Region: &sel.Region, Text: "red"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, r := range state.Results {
//		fmt.Println(r.Title, r.Price, r.Similarity)
//	}
//
// The package consists of these components:
//
//  1. Region (pkg/region): contain-fit frame and screen to image mapping
//  2. Cropper (pkg/cropper): fixed-box previews of a selection
//  3. Capture (pkg/capture): upload and camera boundaries
//  4. Vision (pkg/vision): deterministic stand-in for image analysis
//  5. Search (pkg/search): query construction, classification and results
package fashionsearch

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/pkg/analyzer"
	"github.com/menta2k/fashion-search/pkg/capture"
	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/cropper"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/search"
	"github.com/menta2k/fashion-search/pkg/vision"
)

// Version of the fashion search library
const Version = "1.0.0"

// FashionSearch provides a high-level interface over capture, selection and search
type FashionSearch struct {
	analyzer *analyzer.ImageAnalyzer
	capturer *capture.Capturer
	previews *cropper.PreviewRenderer
	engine   *search.Engine
	vision   search.Analyzer
	session  search.SessionConfig
	minDrag  float64
	log      logrus.FieldLogger
}

// Config collects the configuration of every component
type Config struct {
	Analyzer analyzer.Config
	Capture  capture.Config
	Preview  cropper.PreviewConfig
	Engine   search.Config
	Session  search.SessionConfig
	// Vision analyzes selections; nil uses the heuristic analyzer
	Vision  search.Analyzer
	MinDrag float64
	Logger  logrus.FieldLogger
}

// New creates a FashionSearch with default configuration and no artificial delays
func New() *FashionSearch {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a FashionSearch with custom configuration
func NewWithConfig(cfg Config) *FashionSearch {
	if cfg.Vision == nil {
		cfg.Vision = vision.New()
	}
	if cfg.MinDrag <= 0 {
		cfg.MinDrag = region.DefaultMinDrag
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Session.Sleeper == nil && cfg.Session.SearchDelay == 0 && cfg.Session.AnalysisDelay == 0 {
		cfg.Session.Sleeper = search.NoDelay
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = cfg.Logger
	}

	return &FashionSearch{
		analyzer: analyzer.NewWithConfig(cfg.Analyzer),
		capturer: capture.NewWithConfig(cfg.Capture),
		previews: cropper.NewWithConfig(cfg.Preview),
		engine:   search.NewEngineWithConfig(cfg.Engine),
		vision:   cfg.Vision,
		session:  cfg.Session,
		minDrag:  cfg.MinDrag,
		log:      cfg.Logger,
	}
}

// Selection is a committed selection mapped into image space
type Selection struct {
	Screen region.ScreenRegion `json:"screen"`
	Region region.ImageRegion  `json:"region"`
	Frame  region.Frame        `json:"frame"`
	// Preview is nil when no preview could be rendered
	Preview *cropper.Preview `json:"-"`
}

// ErrSelectionTooSmall is returned for drags below the minimum size
var ErrSelectionTooSmall = errors.New("selection too small")

// Upload validates an uploaded file and decodes it
func (fs *FashionSearch) Upload(contentType string, data []byte) (*capture.Image, error) {
	return fs.capturer.FromUpload(contentType, data)
}

// Snapshot captures one frame from a camera device
func (fs *FashionSearch) Snapshot(ctx context.Context, dev capture.Device) (*capture.Image, error) {
	return fs.capturer.FromDevice(ctx, dev)
}

// FromDataURL decodes a previously captured data URL
func (fs *FashionSearch) FromDataURL(dataURL string) (*capture.Image, error) {
	return fs.capturer.FromDataURL(dataURL)
}

// Frame returns where img is drawn inside a container of the given size
func (fs *FashionSearch) Frame(img image.Image, containerWidth, containerHeight float64) region.Frame {
	b := img.Bounds()
	return region.ComputeRenderedFrame(float64(b.Dx()), float64(b.Dy()), containerWidth, containerHeight)
}

// Select maps a drawn selection into image space and renders its preview.
// A preview failure is not an error; the selection is returned without one.
func (fs *FashionSearch) Select(img image.Image, sr region.ScreenRegion, containerWidth, containerHeight float64) (Selection, error) {
	if img == nil {
		return Selection{}, fmt.Errorf("%w: no image", region.ErrNoRegion)
	}
	if !region.Committable(sr, fs.minDrag) {
		return Selection{}, ErrSelectionTooSmall
	}

	b := img.Bounds()
	ir, frame, err := region.Map(sr, float64(b.Dx()), float64(b.Dy()), containerWidth, containerHeight)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Screen: sr, Region: ir, Frame: frame}
	if prev, err := fs.previews.RenderCroppedPreview(img, ir); err != nil {
		fs.log.WithError(err).WithField("region", ir).Warn("preview unavailable")
	} else {
		sel.Preview = &prev
	}
	return sel, nil
}

// NewSession creates a search session sharing this instance's engine and analyzer
func (fs *FashionSearch) NewSession() *search.Session {
	return search.NewSession(fs.engine, fs.vision, fs.session)
}

// Search runs one request to completion on a fresh session. A failed search
// returns its state together with an error wrapping search.ErrSearchFailed.
func (fs *FashionSearch) Search(ctx context.Context, req search.Request) (search.State, error) {
	state, err := fs.NewSession().Run(ctx, req)
	if err == nil && state.Status == search.StatusFailed {
		err = state.Err
	}
	return state, err
}

// GetImageInfo returns basic information about an image
func (fs *FashionSearch) GetImageInfo(img image.Image) analyzer.ImageInfo {
	return fs.analyzer.GetImageInfo(img)
}

// ValidateImage checks if an image meets requirements
func (fs *FashionSearch) ValidateImage(img image.Image) error {
	return fs.analyzer.ValidateImage(img)
}

// Engine returns the result generator
func (fs *FashionSearch) Engine() *search.Engine {
	return fs.engine
}

// Catalog returns the item type catalog used by the engine
func (fs *FashionSearch) Catalog() *catalog.Catalog {
	return fs.engine.Catalog()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
