package store

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode     string `yaml:"mode"`     // MOCK or LIVE (live trading unimplemented)
	Exchange string `yaml:"exchange"` // screener exchange code, e.g. US

	Decision struct {
		Weights struct {
			Quantitative float64 `yaml:"quantitative"`
			Qualitative  float64 `yaml:"qualitative"`
			Stability    float64 `yaml:"stability"`
		} `yaml:"weights"`
		Thresholds struct {
			Buy          float64 `yaml:"buy"`
			Watch        float64 `yaml:"watch"`
			Hold         float64 `yaml:"hold"`
			Trim         float64 `yaml:"trim"`
			Catastrophic float64 `yaml:"catastrophic"`
		} `yaml:"thresholds"`
		MinHoldingDays int `yaml:"min_holding_days"`
	} `yaml:"decision"`

	Agent struct {
		Provider      string  `yaml:"provider"` // CLAUDE or SCRIPTED
		Model         string  `yaml:"model"`
		MaxTokens     int     `yaml:"max_tokens"`
		Temperature   float32 `yaml:"temperature"`
		MaxIterations int     `yaml:"max_iterations"`
		System        string  `yaml:"system"`
	} `yaml:"agent"`

	Data struct {
		Source         string `yaml:"source"` // EODHD or SCRAPE
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		LookbackDays   int    `yaml:"lookback_days"`
	} `yaml:"data"`

	Shortlist struct {
		TargetSize  int    `yaml:"target_size"`
		RefreshDays int    `yaml:"refresh_days"`
		CachePath   string `yaml:"cache_path"`
	} `yaml:"shortlist"`

	Paths struct {
		ThesisLog string `yaml:"thesis_log"`
	} `yaml:"paths"`

	Report struct {
		Recipient string `yaml:"recipient"`
		From      string `yaml:"from"`
		SMTPHost  string `yaml:"smtp_host"`
		SMTPPort  int    `yaml:"smtp_port"`
	} `yaml:"report"`
}

func (c *Config) Validate() error {
	if c.Mode != "MOCK" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'MOCK' or 'LIVE'", c.Mode)
	}
	w := c.Decision.Weights
	sum := w.Quantitative + w.Qualitative + w.Stability
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("decision.weights must sum to 1.0, got %.4f", sum)
	}
	t := c.Decision.Thresholds
	if !(t.Buy > t.Watch && t.Watch > t.Hold && t.Hold > t.Trim && t.Trim >= t.Catastrophic) {
		return fmt.Errorf("decision.thresholds must be strictly ordered buy > watch > hold > trim >= catastrophic")
	}
	if c.Decision.MinHoldingDays < 0 {
		return fmt.Errorf("decision.min_holding_days must be >= 0, got %d", c.Decision.MinHoldingDays)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.Data.Source != "EODHD" && c.Data.Source != "SCRAPE" {
		return fmt.Errorf("data.source must be 'EODHD' or 'SCRAPE', got '%s'", c.Data.Source)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns a fully-populated configuration for runs without a
// config file.
func DefaultConfig() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "MOCK"
	}
	if c.Exchange == "" {
		c.Exchange = "US"
	}
	w := &c.Decision.Weights
	if w.Quantitative == 0 && w.Qualitative == 0 && w.Stability == 0 {
		w.Quantitative, w.Qualitative, w.Stability = 0.50, 0.35, 0.15
	}
	t := &c.Decision.Thresholds
	if t.Buy == 0 {
		t.Buy = 0.75
	}
	if t.Watch == 0 {
		t.Watch = 0.60
	}
	if t.Hold == 0 {
		t.Hold = 0.45
	}
	if t.Trim == 0 {
		t.Trim = 0.35
	}
	if t.Catastrophic == 0 {
		t.Catastrophic = 0.35
	}
	if c.Decision.MinHoldingDays == 0 {
		c.Decision.MinHoldingDays = 90
	}
	if c.Agent.Provider == "" {
		c.Agent.Provider = "CLAUDE"
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "claude-3-5-sonnet-latest"
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 4096
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 25
	}
	if c.Data.Source == "" {
		c.Data.Source = "EODHD"
	}
	if c.Data.BaseURL == "" {
		c.Data.BaseURL = "https://eodhd.com/api"
	}
	if c.Data.TimeoutSeconds == 0 {
		c.Data.TimeoutSeconds = 20
	}
	if c.Data.LookbackDays == 0 {
		c.Data.LookbackDays = 30
	}
	if c.Shortlist.TargetSize == 0 {
		c.Shortlist.TargetSize = 25
	}
	if c.Shortlist.RefreshDays == 0 {
		c.Shortlist.RefreshDays = 7
	}
	if c.Shortlist.CachePath == "" {
		c.Shortlist.CachePath = "data/shortlist.json"
	}
	if c.Paths.ThesisLog == "" {
		c.Paths.ThesisLog = "data/thesis_log.jsonl"
	}
	if c.Report.SMTPPort == 0 {
		c.Report.SMTPPort = 587
	}
}
