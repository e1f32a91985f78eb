package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/fashion-search/internal/config"
	"github.com/menta2k/fashion-search/pkg/detection"
	"github.com/menta2k/fashion-search/pkg/llamacpp"
	"github.com/menta2k/fashion-search/pkg/ollama"
	"github.com/menta2k/fashion-search/pkg/vision"
)

func TestNewHeuristic(t *testing.T) {
	a, err := New(config.VisionConfig{Backend: config.BackendHeuristic}, nil)
	require.NoError(t, err)
	assert.IsType(t, &vision.HeuristicAnalyzer{}, a.Analyzer)
	assert.Nil(t, a.Client)
	assert.Equal(t, config.BackendHeuristic, a.Name)
}

func TestNewModelBackends(t *testing.T) {
	a, err := New(config.VisionConfig{Backend: config.BackendOllama, URL: "http://localhost:11434/api/chat", Model: "llava"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &detection.Detector{}, a.Analyzer)
	assert.IsType(t, &ollama.Client{}, a.Client)

	a, err = New(config.VisionConfig{Backend: config.BackendLlamaCpp, URL: "http://localhost:8080"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &llamacpp.Client{}, a.Client)
}

func TestNewErrors(t *testing.T) {
	_, err := New(config.VisionConfig{Backend: "gpt"}, nil)
	assert.Error(t, err)

	_, err = New(config.VisionConfig{Backend: config.BackendOllama, URL: "localhost"}, nil)
	assert.Error(t, err)
}
