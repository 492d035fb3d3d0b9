package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Mode != "MOCK" {
		t.Errorf("default mode = %s, want MOCK", cfg.Mode)
	}
	if cfg.Decision.MinHoldingDays != 90 {
		t.Errorf("min holding days = %d, want 90", cfg.Decision.MinHoldingDays)
	}
	if cfg.Agent.MaxIterations != 25 {
		t.Errorf("max iterations = %d, want 25", cfg.Agent.MaxIterations)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "PAPER" }},
		{"weights off", func(c *Config) { c.Decision.Weights.Quantitative = 0.9 }},
		{"thresholds unordered", func(c *Config) { c.Decision.Thresholds.Watch = 0.80 }},
		{"negative holding days", func(c *Config) { c.Decision.MinHoldingDays = -1 }},
		{"negative iterations", func(c *Config) { c.Agent.MaxIterations = -3 }},
		{"bad data source", func(c *Config) { c.Data.Source = "BLOOMBERG" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := []byte("mode: MOCK\ndecision:\n  min_holding_days: 30\n")
	if err := os.WriteFile(path, partial, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Decision.MinHoldingDays != 30 {
		t.Errorf("explicit min_holding_days overridden: %d", cfg.Decision.MinHoldingDays)
	}
	if cfg.Decision.Thresholds.Buy != 0.75 {
		t.Errorf("buy threshold default missing: %v", cfg.Decision.Thresholds.Buy)
	}
	if cfg.Data.Source != "EODHD" {
		t.Errorf("data source default missing: %s", cfg.Data.Source)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
