// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads command settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mdhender/richtext/renderer"
	"golang.org/x/text/unicode/norm"
)

// Config holds the settings shared by the richtext commands.
// Command-line flags override these values.
type Config struct {
	DB                 string        `env:"RICHTEXT_DB" envDefault:"richtext.db"`
	DataDir            string        `env:"RICHTEXT_DATA_DIR" envDefault:"data"`
	Workers            int           `env:"RICHTEXT_WORKERS" envDefault:"4"`
	WorkerID           string        `env:"RICHTEXT_WORKER_ID"`
	MaxAttempts        int           `env:"RICHTEXT_MAX_ATTEMPTS" envDefault:"3"`
	RetryBackoff       time.Duration `env:"RICHTEXT_RETRY_BACKOFF" envDefault:"30s"`
	Sanitize           bool          `env:"RICHTEXT_SANITIZE"`
	Normalize          string        `env:"RICHTEXT_NORMALIZE"` // NFC, NFD, NFKC, NFKD or empty
	PreserveWhitespace bool          `env:"RICHTEXT_PRESERVE_WHITESPACE"`
}

// Load returns the defaults overlaid with the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that can't be used.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers: must be at least 1, got %d", c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts: must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff: must not be negative, got %v", c.RetryBackoff)
	}
	if _, _, err := ParseForm(c.Normalize); err != nil {
		return err
	}
	return nil
}

// ParseForm maps a normalization form name to its norm.Form.
// The empty string means no normalization.
func ParseForm(name string) (norm.Form, bool, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "":
		return 0, false, nil
	case "NFC":
		return norm.NFC, true, nil
	case "NFD":
		return norm.NFD, true, nil
	case "NFKC":
		return norm.NFKC, true, nil
	case "NFKD":
		return norm.NFKD, true, nil
	}
	return 0, false, fmt.Errorf("normalize: unknown form %q", name)
}

// RendererOptions translates the rendering settings into renderer options.
func (c *Config) RendererOptions() ([]renderer.Option, error) {
	var options []renderer.Option
	form, ok, err := ParseForm(c.Normalize)
	if err != nil {
		return nil, err
	} else if ok {
		var next renderer.TextRenderer
		if c.PreserveWhitespace {
			next = renderer.PreserveWhitespace
		}
		options = append(options, renderer.WithTextRenderer(renderer.NormalizedText(form, next)))
	} else if c.PreserveWhitespace {
		options = append(options, renderer.WithPreserveWhitespace(true))
	}
	if c.Sanitize {
		options = append(options, renderer.WithSanitizer(renderer.UGCPolicy()))
	}
	return options, nil
}
