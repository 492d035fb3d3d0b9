package tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"ai-investor/internal/types"
)

const maxBatchTickers = 25

// TickerSnapshot is one element of a fetch_snapshots batch. A failed
// ticker carries its error inline; it never sinks the rest of the batch.
type TickerSnapshot struct {
	Ticker       string                     `json:"ticker"`
	Fundamentals types.FundamentalsSnapshot `json:"fundamentals,omitempty"`
	News         []types.NewsItem           `json:"news,omitempty"`
	Error        string                     `json:"error,omitempty"`
}

// fetchSnapshots fans out fundamentals and news fetches across the batch.
// Each ticker gets its own goroutine under the shared call deadline.
func (x *Executor) fetchSnapshots(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		Tickers []string `json:"tickers"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Tickers) == 0 {
		return nil, newToolError(KindBadRequest, "tickers is required and must be non-empty")
	}
	if len(a.Tickers) > maxBatchTickers {
		return nil, newToolError(KindBadRequest, "at most %d tickers per batch, got %d",
			maxBatchTickers, len(a.Tickers))
	}

	snapshots := make([]TickerSnapshot, len(a.Tickers))
	var wg sync.WaitGroup
	for i, ticker := range a.Tickers {
		ticker := strings.TrimSpace(ticker)
		if ticker == "" {
			snapshots[i] = TickerSnapshot{Error: "empty ticker"}
			continue
		}
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			snapshots[i] = x.snapshotOne(ctx, ticker)
		}(i, ticker)
	}
	wg.Wait()

	failed := 0
	for _, s := range snapshots {
		if s.Error != "" {
			failed++
		}
	}
	return map[string]any{
		"snapshots": snapshots,
		"requested": len(a.Tickers),
		"failed":    failed,
	}, nil
}

func (x *Executor) snapshotOne(ctx context.Context, ticker string) TickerSnapshot {
	snap := TickerSnapshot{Ticker: ticker}

	fundamentals, err := x.data.Fundamentals(ctx, ticker)
	if err != nil {
		snap.Error = err.Error()
		return snap
	}
	snap.Fundamentals = fundamentals

	// News failures degrade the snapshot rather than failing it; the
	// scorer treats missing news as neutral sentiment.
	if news, err := x.data.News(ctx, ticker, x.lookbackDays); err == nil {
		snap.News = news
	}
	return snap
}
