// Package server exposes capture, selection preview and search sessions over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	fashionsearch "github.com/menta2k/fashion-search"
	"github.com/menta2k/fashion-search/internal/config"
	"github.com/menta2k/fashion-search/pkg/client"
	"github.com/menta2k/fashion-search/pkg/cropper"
	"github.com/menta2k/fashion-search/pkg/processing"
	"github.com/menta2k/fashion-search/pkg/search"
)

// MaxUploadBytes bounds multipart uploads
const MaxUploadBytes = 20 << 20

// Options configures a Server
type Options struct {
	Config   *config.Config
	Analyzer search.Analyzer
	// Client is pinged by the status endpoint; nil for the heuristic backend
	Client  client.VisionClient
	Backend string
	Logger  *logrus.Logger
	// Sleeper and Rand override the configured delays and randomness
	Sleeper search.Sleeper
	Rand    search.Rand
	// Now is the clock used for session expiry
	Now func() time.Time
}

// Server owns the router and the live search sessions
type Server struct {
	cfg       *config.Config
	fs        *fashionsearch.FashionSearch
	processor *processing.Processor
	client    client.VisionClient
	backend   string
	log       *logrus.Logger
	limiter   *rate.Limiter
	router    *gin.Engine
	started   time.Time

	ctx    context.Context
	cancel context.CancelFunc

	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry is a live session and the last time a client touched it
type sessionEntry struct {
	session *search.Session
	seen    time.Time
}

// New creates a Server and registers its routes
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	backend := opts.Backend
	if backend == "" {
		backend = cfg.Vision.Backend
	}

	sessionCfg := search.SessionConfig{
		SearchDelay:   cfg.Search.SearchDelay.Std(),
		AnalysisDelay: cfg.Search.AnalysisDelay.Std(),
		Fallback:      cfg.Search.FallbackQuery,
		Sleeper:       opts.Sleeper,
		Logger:        log,
	}
	if sessionCfg.Sleeper == nil {
		sessionCfg.Sleeper = search.TimerSleeper
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg: cfg,
		fs: fashionsearch.NewWithConfig(fashionsearch.Config{
			Preview: cropper.PreviewConfig{BoxSize: cfg.Region.PreviewBox},
			Engine: search.Config{
				MinResults: cfg.Search.MinResults,
				MaxResults: cfg.Search.MaxResults,
				Rand:       opts.Rand,
			},
			Session: sessionCfg,
			Vision:  opts.Analyzer,
			MinDrag: cfg.Region.MinDrag,
			Logger:  log,
		}),
		processor: processing.NewProcessor(),
		client:    opts.Client,
		backend:   backend,
		log:       log,
		started:   now(),
		ctx:       ctx,
		cancel:    cancel,
		now:       now,
		sessions:  map[string]*sessionEntry{},
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.Burst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	corsConfig := cors.DefaultConfig()
	if len(s.cfg.Server.AllowedOrigins) == 0 || slices.Contains(s.cfg.Server.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.Server.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	{
		api.GET("/status", s.status)
		api.GET("/catalog", s.catalog)

		// Capture and selection
		api.POST("/upload", s.upload)
		api.POST("/preview", s.preview)

		// Search sessions
		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getSession)
		api.DELETE("/sessions/:id", s.deleteSession)
		api.POST("/sessions/:id/search", s.limit(), s.search)
		api.POST("/sessions/:id/retry", s.limit(), s.retry)
	}
	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close cancels every search in flight
func (s *Server) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.session.Cancel()
		delete(s.sessions, id)
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ttl := s.cfg.Server.SessionTTL.Std(); ttl > 0 {
		go s.sweepEvery(ctx, max(ttl/2, time.Second))
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Sweep evicts sessions idle for longer than the configured TTL and returns
// how many were removed
func (s *Server) Sweep() int {
	ttl := s.cfg.Server.SessionTTL.Std()
	if ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.sessions {
		if now.Sub(e.seen) > ttl {
			e.session.Cancel()
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.log.WithField("evicted", n).Debug("expired sessions removed")
	}
	return n
}

func (s *Server) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// addSession stores sess, evicting the least recently used session when the
// cap is reached
func (s *Server) addSession(id string, sess *search.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit := s.cfg.Server.MaxSessions; limit > 0 && len(s.sessions) >= limit {
		var oldest string
		var oldestSeen time.Time
		for key, e := range s.sessions {
			if oldest == "" || e.seen.Before(oldestSeen) {
				oldest, oldestSeen = key, e.seen
			}
		}
		s.sessions[oldest].session.Cancel()
		delete(s.sessions, oldest)
		s.log.WithField("session", oldest).Debug("session cap reached, evicted least recently used")
	}
	s.sessions[id] = &sessionEntry{session: sess, seen: s.now()}
}

// limit rejects requests beyond the configured search rate
func (s *Server) limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many searches, slow down"})
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request with logrus
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request")
		}
	}
}
