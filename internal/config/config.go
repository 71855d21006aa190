package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/planemesh/engine/internal/domain"
)

// Config holds the engine's runtime configuration.
type Config struct {
	DBPath              string  `json:"db_path"`
	ListenAddr          string  `json:"listen_addr"`
	DefaultMaxArea      float64 `json:"default_max_area"`
	DefaultMinAngle     float64 `json:"default_min_angle"`
	MaxRefineRounds     int     `json:"max_refine_rounds"`
	MaxVertices         int     `json:"max_vertices"`
	MaxAnnealIterations int     `json:"max_anneal_iterations"`
	PersistResults      *bool   `json:"persist_results"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Persist reports whether generated results should be written to the store.
// Defaults to true when the config file does not say otherwise.
func (c *Config) Persist() bool {
	return c.PersistResults == nil || *c.PersistResults
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9810"
	}
	if c.DefaultMaxArea == 0 {
		c.DefaultMaxArea = 0.1
	}
	if c.DefaultMinAngle == 0 {
		c.DefaultMinAngle = 20
	}
	if c.MaxRefineRounds == 0 {
		c.MaxRefineRounds = 50
	}
	if c.MaxVertices == 0 {
		c.MaxVertices = 10000
	}
	if c.MaxAnnealIterations == 0 {
		c.MaxAnnealIterations = 10000
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.DefaultMaxArea < 0 {
		problems = append(problems, "default_max_area must be positive")
	}
	if c.DefaultMinAngle < 0 || c.DefaultMinAngle >= 90 {
		problems = append(problems, "default_min_angle must be in (0, 90)")
	}
	if c.MaxRefineRounds < 0 {
		problems = append(problems, "max_refine_rounds must be positive")
	}
	if c.MaxVertices < 100 {
		problems = append(problems, "max_vertices must be at least 100")
	}
	if c.MaxAnnealIterations < 0 {
		problems = append(problems, "max_anneal_iterations must be positive")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
