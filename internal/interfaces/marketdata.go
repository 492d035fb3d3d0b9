package interfaces

import (
	"context"

	"ai-investor/internal/types"
)

// MarketData supplies per-ticker fundamentals and news for one
// evaluation cycle.
type MarketData interface {
	Fundamentals(ctx context.Context, ticker string) (types.FundamentalsSnapshot, error)
	News(ctx context.Context, ticker string, lookbackDays int) ([]types.NewsItem, error)
}

// Screener lists tickers matching the conservative dividend filters used
// to build the candidate shortlist.
type Screener interface {
	ListDividendLargeCaps(ctx context.Context, exchange string) ([]types.Candidate, error)
}
