package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20.0, cfg.Region.MinDrag)
	assert.Equal(t, 150, cfg.Region.PreviewBox)
	assert.Equal(t, 1500*time.Millisecond, cfg.Search.SearchDelay.Std())
	assert.Equal(t, BackendHeuristic, cfg.Vision.Backend)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Search.MaxResults = 12
	cfg.Search.AnalysisDelay = Duration(250 * time.Millisecond)
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search": {"min_results": 3, "max_results": 4, "search_delay": 200}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.MinResults)
	assert.Equal(t, 200*time.Millisecond, cfg.Search.SearchDelay.Std())
	assert.Equal(t, 150, cfg.Region.PreviewBox)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search": {"search_delay": "soon"}}`), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, ":8990", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL.Std())
	assert.Equal(t, 1000, cfg.Server.MaxSessions)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FASHION_ADDR", ":9000")
	t.Setenv("FASHION_VISION_BACKEND", "OLLAMA")
	t.Setenv("FASHION_VISION_MODEL", "minicpm-v4")
	t.Setenv("FASHION_SEARCH_DELAY", "10ms")
	t.Setenv("FASHION_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv())
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, BackendOllama, cfg.Vision.Backend)
	assert.Equal(t, "minicpm-v4", cfg.Vision.Model)
	assert.Equal(t, 10*time.Millisecond, cfg.Search.SearchDelay.Std())
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FASHION_VISION_URL=http://gpu:8080\n"), 0644))
	t.Setenv("FASHION_VISION_URL", "")
	os.Unsetenv("FASHION_VISION_URL")

	cfg := Default()
	require.NoError(t, cfg.LoadEnv(envFile))
	assert.Equal(t, "http://gpu:8080", cfg.Vision.URL)
}

func TestLoadEnvBadDelay(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FASHION_SEARCH_DELAY", "later")
	assert.Error(t, Default().LoadEnv())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"preview box":    func(c *Config) { c.Region.PreviewBox = 0 },
		"quality":        func(c *Config) { c.Region.PreviewQuality = 101 },
		"format":         func(c *Config) { c.Region.PreviewFormat = "bmp" },
		"min results":    func(c *Config) { c.Search.MinResults = 0 },
		"max below min":  func(c *Config) { c.Search.MaxResults = 2 },
		"negative delay": func(c *Config) { c.Search.SearchDelay = Duration(-time.Second) },
		"backend":        func(c *Config) { c.Vision.Backend = "gpt" },
		"missing url":    func(c *Config) { c.Vision.Backend = BackendLlamaCpp; c.Vision.URL = "" },
		"burst":          func(c *Config) { c.Server.Burst = 0 },
		"session ttl":    func(c *Config) { c.Server.SessionTTL = Duration(-time.Minute) },
		"max sessions":   func(c *Config) { c.Server.MaxSessions = -1 },
		"log level":      func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
