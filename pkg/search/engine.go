// Package search synthesizes ranked mock results for a query and runs the
// per-session search state machine.
package search

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/query"
)

const (
	// DefaultMinResults is the fewest results a search returns
	DefaultMinResults = 6
	// DefaultMaxResults is the most results a search returns
	DefaultMaxResults = 9

	baseSimilarity   = 65
	matchBonus       = 8
	similarityJitter = 12
	maxSimilarity    = 95
)

// Rand is the source of pseudo-random choices. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Result is one synthesized product
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	PriceCents int    `json:"priceCents"`
	Store      string `json:"store"`
	ImageURL   string `json:"imageUrl"`
	Link       string `json:"link"`
	Similarity int    `json:"similarity"`
	ItemType   string `json:"itemType"`
}

// Config holds configuration for an Engine
type Config struct {
	MinResults int
	MaxResults int
	Catalog    *catalog.Catalog
	Rand       Rand
	Now        func() time.Time
}

// Engine generates result sets. It is safe for concurrent use.
type Engine struct {
	cat        *catalog.Catalog
	classifier *query.Classifier
	minResults int
	maxResults int
	now        func() time.Time

	mu        sync.Mutex
	rng       Rand
	titler    cases.Caser
	lastStamp int64
}

// NewEngine creates an Engine with default configuration
func NewEngine() *Engine {
	return NewEngineWithConfig(Config{})
}

// NewEngineWithConfig creates an Engine with custom configuration. Zero fields
// take their defaults.
func NewEngineWithConfig(cfg Config) *Engine {
	if cfg.MinResults <= 0 {
		cfg.MinResults = DefaultMinResults
	}
	if cfg.MaxResults < cfg.MinResults {
		cfg.MaxResults = max(DefaultMaxResults, cfg.MinResults)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Rand == nil {
		cfg.Rand = globalRand{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		cat:        cfg.Catalog,
		classifier: query.NewClassifier(cfg.Catalog),
		minResults: cfg.MinResults,
		maxResults: cfg.MaxResults,
		now:        cfg.Now,
		rng:        cfg.Rand,
		titler:     cases.Title(language.English),
	}
}

// Catalog returns the catalog results are drawn from
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// Classifier returns the classifier bound to the engine's catalog
func (e *Engine) Classifier() *query.Classifier {
	return e.classifier
}

// GenerateResults synthesizes between MinResults and MaxResults products for
// q, sorted by similarity with ties in generation order. With a non-empty
// itemType every result has that type; otherwise the types relevant to q are
// used round-robin.
func (e *Engine) GenerateResults(q query.Query, itemType string) []Result {
	if q.IsEmpty() {
		q = query.Build("", nil, query.DefaultFallback)
	}

	var itemTypes []string
	if itemType != "" {
		if canonical, ok := e.cat.Canonical(itemType); ok {
			itemType = canonical
		}
		itemTypes = []string{strings.ToLower(itemType)}
	} else {
		itemTypes = e.classifier.RelevantItemTypes(q.Tokens)
	}

	colors := pick(q.Tokens, e.cat.Colors(), e.cat.DefaultColors())
	styles := pick(q.Tokens, e.cat.Styles(), e.cat.DefaultStyles())
	adjectives := e.cat.Adjectives()
	stores := e.cat.Stores()

	e.mu.Lock()
	defer e.mu.Unlock()

	count := e.minResults + e.rng.IntN(e.maxResults-e.minResults+1)
	stamp := e.stamp()

	results := make([]Result, 0, count)
	for i := 0; i < count; i++ {
		typ := itemTypes[i%len(itemTypes)]

		color := colors[e.rng.IntN(len(colors))]
		style := styles[e.rng.IntN(len(styles))]
		adjective := adjectives[e.rng.IntN(len(adjectives))]
		title := e.title(adjective, color, style, e.cat.Title(typ))

		band := e.cat.PriceBand(typ)
		dollars := band.Min + e.rng.IntN(band.Max-band.Min+1)
		cents := e.rng.IntN(100)

		results = append(results, Result{
			ID:         fmt.Sprintf("dynamic_%d_%d", stamp, i),
			Title:      title,
			Price:      fmt.Sprintf("$%d.%02d", dollars, cents),
			PriceCents: dollars*100 + cents,
			Store:      stores[e.rng.IntN(len(stores))],
			ImageURL:   e.cat.ImageURL(typ, i),
			Link:       fmt.Sprintf("#product_%d", i),
			Similarity: Similarity(q.Tokens, title, e.rng.IntN(similarityJitter)),
			ItemType:   typ,
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return b.Similarity - a.Similarity
	})
	return results
}

// stamp returns a generation timestamp strictly greater than the previous
// one, so ids stay unique across calls within the same clock tick.
func (e *Engine) stamp() int64 {
	s := max(e.now().UnixNano(), e.lastStamp+1)
	e.lastStamp = s
	return s
}

// pick returns the vocabulary entries named in tokens, in vocabulary order,
// or defaults when none are.
func pick(tokens, vocab, defaults []string) []string {
	var out []string
	for _, v := range vocab {
		if slices.Contains(tokens, v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

func (e *Engine) title(parts ...string) string {
	return e.titler.String(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

// Similarity scores a title against the query tokens: 65, plus 8 for every
// token found in the title, plus jitter, capped at 95.
func Similarity(tokens []string, title string, jitter int) int {
	lower := strings.ToLower(title)
	matches := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			matches++
		}
	}
	return min(maxSimilarity, baseSimilarity+matchBonus*matches+jitter)
}
