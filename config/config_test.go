package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BaseURL != "https://web-scraping.dev" {
		t.Errorf("BaseURL = %q; want default", cfg.BaseURL)
	}
	if cfg.CutoffYear != 2023 {
		t.Errorf("CutoffYear = %d; want 2023", cfg.CutoffYear)
	}
	if cfg.ScrollSettle != 3*time.Second {
		t.Errorf("ScrollSettle = %v; want 3s", cfg.ScrollSettle)
	}
	if cfg.MaxNavAttempts != 1 {
		t.Errorf("MaxNavAttempts = %d; want 1", cfg.MaxNavAttempts)
	}
	if cfg.SentimentMaxChars != 512 {
		t.Errorf("SentimentMaxChars = %d; want 512", cfg.SentimentMaxChars)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CUTOFF_YEAR", "2024")
	t.Setenv("PARALLEL_PHASES", "true")
	t.Setenv("LOAD_MORE_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CutoffYear != 2024 {
		t.Errorf("CutoffYear = %d; want 2024", cfg.CutoffYear)
	}
	if !cfg.ParallelPhases {
		t.Error("ParallelPhases should be true")
	}
	if cfg.LoadMoreTimeout != 2*time.Second {
		t.Errorf("LoadMoreTimeout = %v; want 2s", cfg.LoadMoreTimeout)
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() Config {
		return Config{
			BaseURL:              "https://example.com",
			StartPage:            1,
			CutoffYear:           2023,
			MaxNavAttempts:       1,
			SentimentBatchSize:   8,
			SentimentConcurrency: 1,
			SentimentMaxChars:    512,
			SentimentProvider:    "lexicon",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.BaseURL = " " }},
		{"page zero", func(c *Config) { c.StartPage = 0 }},
		{"year out of range", func(c *Config) { c.CutoffYear = 1999 }},
		{"no attempts", func(c *Config) { c.MaxNavAttempts = 0 }},
		{"zero batch", func(c *Config) { c.SentimentBatchSize = 0 }},
		{"unknown provider", func(c *Config) { c.SentimentProvider = "openai" }},
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("Validate() = nil; want error")
			}
		})
	}
}

func TestURL(t *testing.T) {
	c := &Config{BaseURL: "https://web-scraping.dev/"}
	if got := c.URL("/reviews"); got != "https://web-scraping.dev/reviews" {
		t.Errorf("URL(/reviews) = %q", got)
	}
}
