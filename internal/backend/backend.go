// Package backend builds the image analyzer selected in the configuration.
package backend

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/internal/config"
	"github.com/menta2k/fashion-search/pkg/client"
	"github.com/menta2k/fashion-search/pkg/detection"
	"github.com/menta2k/fashion-search/pkg/llamacpp"
	"github.com/menta2k/fashion-search/pkg/ollama"
	"github.com/menta2k/fashion-search/pkg/search"
	"github.com/menta2k/fashion-search/pkg/vision"
)

// Analyzer is the configured analyzer plus the model client behind it, if any
type Analyzer struct {
	search.Analyzer
	Client client.VisionClient
	Name   string
}

// New creates the analyzer for cfg. Model backends fall back to the
// heuristic analyzer when the model fails.
func New(cfg config.VisionConfig, log logrus.FieldLogger) (*Analyzer, error) {
	heuristic := vision.New()

	var (
		vc  client.VisionClient
		err error
	)
	switch cfg.Backend {
	case "", config.BackendHeuristic:
		return &Analyzer{Analyzer: heuristic, Name: config.BackendHeuristic}, nil
	case config.BackendOllama:
		vc, err = ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
	case config.BackendLlamaCpp:
		vc, err = llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown backend: %s (use heuristic, ollama or llamacpp)", cfg.Backend)
	}

	detector := detection.NewDetector(vc, detection.Config{
		Model:       cfg.Model,
		SendSize:    cfg.SendSize,
		SendQuality: cfg.SendQuality,
	}, heuristic)
	if log != nil {
		detector.SetLogger(log.WithField("backend", cfg.Backend))
	}
	return &Analyzer{Analyzer: detector, Client: vc, Name: cfg.Backend}, nil
}
