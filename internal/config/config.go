package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fractalzoo/internal/viewport"
)

const (
	DefaultFractal  = "Mandelbrot"
	DefaultMaxIter  = 256
	DefaultWidth    = 960
	DefaultHeight   = 640
	DefaultTileSize = 64
	DefaultBudgetMs = 33
)

type Config struct {
	DefaultFractal string `yaml:"default_fractal"`
	// Catalog and ShaderDir point at files on disk; empty means built in.
	Catalog   string `yaml:"catalog"`
	ShaderDir string `yaml:"shader_dir"`
	Backend   string `yaml:"backend"`
	MaxIter   int    `yaml:"max_iter"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	// Workers <= 0 uses one worker per CPU.
	Workers  int    `yaml:"workers"`
	TileSize int    `yaml:"tile_size"`
	BudgetMs int    `yaml:"budget_ms"`
	LogLevel string `yaml:"log_level"`
	// StartView replaces the canonical starting rectangle of escape-time
	// fractals.
	StartView *viewport.Rect `yaml:"start_view,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultFractal: DefaultFractal,
		Backend:        "auto",
		MaxIter:        DefaultMaxIter,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		TileSize:       DefaultTileSize,
		BudgetMs:       DefaultBudgetMs,
		LogLevel:       "warn",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: size %dx%d must be positive", c.Width, c.Height)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("config: max_iter %d must be positive", c.MaxIter)
	}
	if c.StartView != nil {
		if err := c.StartView.Validate(); err != nil {
			return fmt.Errorf("config: start_view: %w", err)
		}
	}
	return nil
}

// View returns the configured starting rectangle or the canonical one.
func (c *Config) View() viewport.Rect {
	if c.StartView != nil {
		return *c.StartView
	}
	return viewport.Canonical()
}
