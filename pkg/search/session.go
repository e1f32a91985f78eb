package search

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/pkg/query"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/types"
)

var (
	// ErrEmptyInput is returned when there is neither text nor an image to
	// search on. The search is not started.
	ErrEmptyInput = errors.New("nothing to search on")

	// ErrSearchFailed wraps every pipeline failure surfaced to the user
	ErrSearchFailed = errors.New("search failed")
)

// FailureMessage is shown to the user for any failed search
const FailureMessage = "Search failed. Please try again."

const (
	// DefaultSearchDelay is the artificial latency of result generation
	DefaultSearchDelay = 1500 * time.Millisecond
	// DefaultAnalysisDelay is the artificial latency of image analysis
	DefaultAnalysisDelay = 2 * time.Second
)

// Analyzer describes what is inside a selected part of an image
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface
type AnalyzerFunc func(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error) {
	return f(ctx, img, r)
}

// Sleeper waits for d or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a real timer
var TimerSleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// NoDelay returns immediately unless ctx is already done
var NoDelay = SleeperFunc(func(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
})

// Status is the phase of the latest search
type Status string

const (
	StatusIdle              Status = "idle"
	StatusBuildingQuery     Status = "building_query"
	StatusGeneratingResults Status = "generating_results"
	StatusDone              Status = "done"
	StatusFailed            Status = "failed"
)

// Loading reports whether a search is in flight
func (s Status) Loading() bool {
	return s == StatusBuildingQuery || s == StatusGeneratingResults
}

// Request is one search invocation
type Request struct {
	Text string `json:"text"`
	// Image is the active capture; nil for a text search
	Image image.Image `json:"-"`
	// Region pins the search to the selection's dominant item type. Nil means
	// the whole image.
	Region *region.ImageRegion `json:"region,omitempty"`
	// Descriptors skips image analysis when the caller already has them
	Descriptors *types.Descriptors `json:"descriptors,omitempty"`
	// ItemType forces every result to one type
	ItemType string `json:"itemType,omitempty"`
}

func (r Request) hasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

func (r Request) hasImage() bool {
	return r.Image != nil || r.Descriptors != nil
}

// State is what the presentation layer sees
type State struct {
	Token     uint64      `json:"token"`
	Status    Status      `json:"status"`
	Loading   bool        `json:"loading"`
	Label     string      `json:"label"`
	Query     query.Query `json:"query"`
	ItemType  string      `json:"itemType,omitempty"`
	Results   []Result    `json:"results"`
	Error     string      `json:"error,omitempty"`
	Err       error       `json:"-"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SessionConfig holds configuration for a Session
type SessionConfig struct {
	SearchDelay   time.Duration
	AnalysisDelay time.Duration
	Fallback      string
	Sleeper       Sleeper
	Logger        logrus.FieldLogger
}

// Session owns the search state of one user. A new request supersedes any in
// flight: its context is cancelled and its outcome is discarded.
type Session struct {
	engine   *Engine
	analyzer Analyzer
	cfg      SessionConfig
	log      logrus.FieldLogger

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	done   chan struct{}
	last   *Request
	state  State
}

// NewSession creates a session. A nil engine gets the default engine.
func NewSession(engine *Engine, analyzer Analyzer, cfg SessionConfig) *Session {
	if engine == nil {
		engine = NewEngine()
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = TimerSleeper
	}
	if cfg.Fallback == "" {
		cfg.Fallback = query.DefaultFallback
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	done := make(chan struct{})
	close(done)
	return &Session{
		engine:   engine,
		analyzer: analyzer,
		cfg:      cfg,
		log:      cfg.Logger,
		done:     done,
		state:    State{Status: StatusIdle, UpdatedAt: time.Now()},
	}
}

// Submit starts req in the background and returns its token. Any request
// still in flight is cancelled.
func (s *Session) Submit(ctx context.Context, req Request) (uint64, error) {
	if !req.hasText() && !req.hasImage() {
		return 0, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.token++
	token := s.token
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.last = &req
	s.setLocked(State{
		Token:  token,
		Status: StatusBuildingQuery,
		Label:  loadingLabel(req),
	})

	go func() {
		defer close(done)
		defer cancel()
		s.run(runCtx, token, req)
	}()
	return token, nil
}

// Retry re-submits the last request with the same inputs
func (s *Session) Retry(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return 0, ErrEmptyInput
	}
	return s.Submit(ctx, *last)
}

// Run submits req and waits for it to settle
func (s *Session) Run(ctx context.Context, req Request) (State, error) {
	if _, err := s.Submit(ctx, req); err != nil {
		return State{}, err
	}
	return s.Wait(ctx)
}

// Wait blocks until the latest request is done or failed
func (s *Session) Wait(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		state, done := s.state, s.done
		s.mu.Unlock()

		if !state.Status.Loading() {
			return copyState(state), nil
		}

		select {
		case <-ctx.Done():
			return copyState(state), ctx.Err()
		case <-done:
		}
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Cancel abandons the request in flight and returns to idle. The last
// request is kept for Retry.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
	s.setLocked(State{Token: s.token, Status: StatusIdle})
}

func (s *Session) run(ctx context.Context, token uint64, req Request) {
	q, itemType, err := s.buildQuery(ctx, req)
	if err != nil {
		s.fail(token, err)
		return
	}

	if !s.update(token, func(st *State) {
		st.Status = StatusGeneratingResults
		st.Query = q
		st.ItemType = itemType
	}) {
		return
	}

	if err := s.cfg.Sleeper.Sleep(ctx, s.cfg.SearchDelay); err != nil {
		s.fail(token, err)
		return
	}

	results := s.engine.GenerateResults(q, itemType)
	s.update(token, func(st *State) {
		st.Status = StatusDone
		st.Label = doneLabel(req, q)
		st.Results = results
	})
}

// buildQuery runs the analysis stage when an image is present and merges its
// descriptors with the text.
func (s *Session) buildQuery(ctx context.Context, req Request) (query.Query, string, error) {
	itemType := strings.TrimSpace(req.ItemType)
	if !req.hasImage() {
		return query.Build(req.Text, nil, s.cfg.Fallback), itemType, nil
	}

	desc, err := s.describe(ctx, req)
	if err != nil {
		return query.Query{}, "", err
	}

	if itemType == "" && req.Region != nil {
		itemType, _ = s.engine.Classifier().ClassifyRegion(desc.Items)
	}

	if !req.hasText() {
		// An image-only search looks for the detected items in their colors.
		desc = types.Descriptors{Items: desc.Items, Colors: desc.Colors}
	}
	return query.Build(req.Text, &desc, s.cfg.Fallback), itemType, nil
}

func (s *Session) describe(ctx context.Context, req Request) (types.Descriptors, error) {
	if req.Descriptors != nil {
		return *req.Descriptors, nil
	}
	if s.analyzer == nil {
		return types.Descriptors{}, errors.New("no image analyzer configured")
	}

	if err := s.cfg.Sleeper.Sleep(ctx, s.cfg.AnalysisDelay); err != nil {
		return types.Descriptors{}, err
	}

	r := region.ImageRegion{
		Width:  float64(req.Image.Bounds().Dx()),
		Height: float64(req.Image.Bounds().Dy()),
	}
	if req.Region != nil {
		r = *req.Region
	}

	desc, err := s.analyzer.Analyze(ctx, req.Image, r)
	if err != nil {
		return types.Descriptors{}, fmt.Errorf("analyze image: %w", err)
	}
	return desc, nil
}

func (s *Session) fail(token uint64, err error) {
	ok := s.update(token, func(st *State) {
		st.Status = StatusFailed
		st.Label = ""
		st.Results = nil
		st.Error = FailureMessage
		st.Err = fmt.Errorf("%w: %w", ErrSearchFailed, err)
	})
	if ok {
		s.log.WithError(err).WithField("token", token).Warn("search failed")
	}
}

// update applies fn to the state if token is still the latest request. It
// reports whether the update was applied.
func (s *Session) update(token uint64, fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.token {
		s.log.WithFields(logrus.Fields{
			"token":  token,
			"latest": s.token,
		}).Debug("discarding stale search result")
		return false
	}
	st := s.state
	fn(&st)
	s.setLocked(st)
	return true
}

func (s *Session) setLocked(st State) {
	st.Loading = st.Status.Loading()
	st.UpdatedAt = time.Now()
	s.state = st
}

func copyState(st State) State {
	if st.Results != nil {
		st.Results = append([]Result(nil), st.Results...)
	}
	if st.Query.Tokens != nil {
		st.Query.Tokens = append([]string(nil), st.Query.Tokens...)
	}
	return st
}

func loadingLabel(req Request) string {
	switch {
	case req.hasImage() && req.hasText():
		return "Analyzing image and description..."
	case req.hasImage():
		return "Analyzing image..."
	case req.hasText():
		return `Text Search: "` + strings.TrimSpace(req.Text) + `"`
	}
	return "Processing..."
}

func doneLabel(req Request, q query.Query) string {
	switch {
	case req.hasImage() && req.hasText():
		return `Image + Text: "` + strings.TrimSpace(req.Text) + `"`
	case req.hasImage():
		return "Image Analysis: " + q.String()
	}
	return `Text Search: "` + strings.TrimSpace(req.Text) + `"`
}
