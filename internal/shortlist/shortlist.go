// Package shortlist maintains the cached set of candidate tickers
// eligible for new positions.
package shortlist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ai-investor/internal/interfaces"
	"ai-investor/internal/logger"
	"ai-investor/internal/types"
)

// Cache is the persisted shortlist snapshot.
type Cache struct {
	Tickers     []types.Candidate `json:"tickers"`
	LastRefresh *time.Time        `json:"last_refresh,omitempty"`
}

// Pipeline refreshes and persists a manageable list of dividend-paying
// large caps.
type Pipeline struct {
	screener    interfaces.Screener
	cachePath   string
	targetSize  int
	refreshDays int
	exchange    string
	now         func() time.Time
}

type Config struct {
	CachePath   string
	TargetSize  int
	RefreshDays int
	Exchange    string
}

func New(screener interfaces.Screener, cfg Config) *Pipeline {
	return &Pipeline{
		screener:    screener,
		cachePath:   cfg.CachePath,
		targetSize:  cfg.TargetSize,
		refreshDays: cfg.RefreshDays,
		exchange:    cfg.Exchange,
		now:         time.Now,
	}
}

// Load reads the cache, returning an empty one on absence or corruption.
func (p *Pipeline) Load() Cache {
	b, err := os.ReadFile(p.cachePath)
	if err != nil {
		return Cache{}
	}
	var c Cache
	if err := json.Unmarshal(b, &c); err != nil {
		logger.Warn(context.Background(), "Shortlist cache corrupted, starting fresh",
			"path", p.cachePath)
		return Cache{}
	}
	return c
}

func (p *Pipeline) Save(tickers []types.Candidate) error {
	now := p.now().UTC()
	payload := Cache{Tickers: tickers, LastRefresh: &now}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.cachePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.cachePath, b, 0o644)
}

// NeedsRefresh reports whether the cache is stale.
func (p *Pipeline) NeedsRefresh(c Cache) bool {
	if c.LastRefresh == nil {
		return true
	}
	return p.now().Sub(*c.LastRefresh) >= time.Duration(p.refreshDays)*24*time.Hour
}

// Refresh pulls the screener universe, orders it by liquidity then size,
// and persists the top slice.
func (p *Pipeline) Refresh(ctx context.Context) (Cache, error) {
	logger.Info(ctx, "Refreshing shortlist", "exchange", p.exchange)
	universe, err := p.screener.ListDividendLargeCaps(ctx, p.exchange)
	if err != nil {
		return Cache{}, err
	}
	sort.SliceStable(universe, func(i, j int) bool {
		if universe[i].AvgVolume != universe[j].AvgVolume {
			return universe[i].AvgVolume > universe[j].AvgVolume
		}
		return universe[i].MarketCap > universe[j].MarketCap
	})
	if len(universe) > p.targetSize {
		universe = universe[:p.targetSize]
	}
	if err := p.Save(universe); err != nil {
		return Cache{}, err
	}
	now := p.now().UTC()
	return Cache{Tickers: universe, LastRefresh: &now}, nil
}

// Ensure returns a fresh-enough shortlist, refreshing when stale. A failed
// refresh falls back to the stale cache when one exists.
func (p *Pipeline) Ensure(ctx context.Context) (Cache, error) {
	cache := p.Load()
	if !p.NeedsRefresh(cache) {
		logger.Debug(ctx, "Using cached shortlist", "count", len(cache.Tickers))
		return cache, nil
	}
	fresh, err := p.Refresh(ctx)
	if err != nil {
		if len(cache.Tickers) > 0 {
			logger.Warn(ctx, "Shortlist refresh failed, serving stale cache", "error", err)
			return cache, nil
		}
		return Cache{}, err
	}
	return fresh, nil
}
