package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration
type Config struct {
	Region   RegionConfig `json:"region"`
	Search   SearchConfig `json:"search"`
	Vision   VisionConfig `json:"vision"`
	Server   ServerConfig `json:"server"`
	LogLevel string       `json:"log_level"`
}

// RegionConfig holds configuration for selections and previews
type RegionConfig struct {
	MinDrag        float64 `json:"min_drag"`
	PreviewBox     int     `json:"preview_box"`
	PreviewFormat  string  `json:"preview_format"`
	PreviewQuality int     `json:"preview_quality"`
}

// SearchConfig holds configuration for result generation
type SearchConfig struct {
	MinResults    int      `json:"min_results"`
	MaxResults    int      `json:"max_results"`
	SearchDelay   Duration `json:"search_delay"`
	AnalysisDelay Duration `json:"analysis_delay"`
	FallbackQuery string   `json:"fallback_query"`
}

// VisionConfig selects the image analysis backend
type VisionConfig struct {
	Backend     string `json:"backend"`
	URL         string `json:"url"`
	Model       string `json:"model"`
	SendSize    int    `json:"send_size"`
	SendQuality int    `json:"send_quality"`
}

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Addr           string   `json:"addr"`
	RateLimit      float64  `json:"rate_limit"`
	Burst          int      `json:"burst"`
	AllowedOrigins []string `json:"allowed_origins"`
	// SessionTTL evicts sessions idle for longer; 0 keeps them until deleted
	SessionTTL Duration `json:"session_ttl"`
	// MaxSessions evicts the least recently used session when reached; 0 means no cap
	MaxSessions int `json:"max_sessions"`
}

// Vision backends
const (
	BackendHeuristic = "heuristic"
	BackendOllama    = "ollama"
	BackendLlamaCpp  = "llamacpp"
)

// Duration is a time.Duration written as "1.5s" in JSON
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Millisecond)))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Region: RegionConfig{
			MinDrag:        20,
			PreviewBox:     150,
			PreviewFormat:  "jpg",
			PreviewQuality: 80,
		},
		Search: SearchConfig{
			MinResults:    6,
			MaxResults:    9,
			SearchDelay:   Duration(1500 * time.Millisecond),
			AnalysisDelay: Duration(2 * time.Second),
			FallbackQuery: "fashion item",
		},
		Vision: VisionConfig{
			Backend:     BackendHeuristic,
			URL:         "http://localhost:11434",
			Model:       "llava",
			SendSize:    768,
			SendQuality: 85,
		},
		Server: ServerConfig{
			Addr:           ":8990",
			RateLimit:      5,
			Burst:          10,
			AllowedOrigins: []string{"*"},
			SessionTTL:     Duration(30 * time.Minute),
			MaxSessions:    1000,
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load reads the config file when it exists, then applies the environment
func Load(filename string) (*Config, error) {
	config := Default()
	if filename != "" {
		loaded, err := LoadFromFile(filename)
		switch {
		case err == nil:
			config = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// LoadEnv loads a .env file if present and overlays FASHION_* variables
func (c *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if v := os.Getenv("FASHION_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FASHION_VISION_BACKEND"); v != "" {
		c.Vision.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FASHION_VISION_URL"); v != "" {
		c.Vision.URL = v
	}
	if v := os.Getenv("FASHION_VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("FASHION_SEARCH_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FASHION_SEARCH_DELAY: %w", err)
		}
		c.Search.SearchDelay = Duration(d)
	}
	if v := os.Getenv("FASHION_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Region.MinDrag < 0 {
		return fmt.Errorf("region.min_drag must not be negative")
	}
	if c.Region.PreviewBox < 1 {
		return fmt.Errorf("region.preview_box must be positive")
	}
	if c.Region.PreviewQuality < 1 || c.Region.PreviewQuality > 100 {
		return fmt.Errorf("region.preview_quality must be between 1 and 100")
	}
	switch strings.ToLower(c.Region.PreviewFormat) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("region.preview_format %q is not supported", c.Region.PreviewFormat)
	}

	if c.Search.MinResults < 1 {
		return fmt.Errorf("search.min_results must be positive")
	}
	if c.Search.MaxResults < c.Search.MinResults {
		return fmt.Errorf("search.max_results must be at least search.min_results")
	}
	if c.Search.SearchDelay < 0 || c.Search.AnalysisDelay < 0 {
		return fmt.Errorf("search delays must not be negative")
	}

	switch c.Vision.Backend {
	case BackendHeuristic:
	case BackendOllama, BackendLlamaCpp:
		if c.Vision.URL == "" {
			return fmt.Errorf("vision.url is required for the %s backend", c.Vision.Backend)
		}
		if c.Vision.SendQuality < 1 || c.Vision.SendQuality > 100 {
			return fmt.Errorf("vision.send_quality must be between 1 and 100")
		}
	default:
		return fmt.Errorf("vision.backend %q is not supported", c.Vision.Backend)
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be positive when rate limiting")
	}
	if c.Server.SessionTTL < 0 || c.Server.MaxSessions < 0 {
		return fmt.Errorf("server session limits must not be negative")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured logrus level, defaulting to info
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "fashion-search", "config.json")
}
