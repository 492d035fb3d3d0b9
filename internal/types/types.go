package types

import (
	"encoding/json"
	"time"
)

// Position is one holding in the portfolio snapshot. Snapshots are
// rebuilt on every run; positions are never mutated in place by callers.
type Position struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name,omitempty"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	Currency     string  `json:"currency"`
}

// Funds summarizes account liquidity.
type Funds struct {
	Currency      string  `json:"currency"`
	AvailableCash float64 `json:"available_cash"`
	TotalValue    float64 `json:"total_value"`
	InvestedValue float64 `json:"invested_value"`
}

// FundamentalsSnapshot carries one evaluation cycle's fundamental metrics.
// Every field is optional: nil means the provider had no data, which is
// different from zero. Ratio fields are percentages (3.5 == 3.5%).
type FundamentalsSnapshot struct {
	Ticker        string   `json:"ticker"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	PayoutRatio   *float64 `json:"payout_ratio,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	ForwardPE     *float64 `json:"forward_pe,omitempty"`
	NetMargin     *float64 `json:"net_margin,omitempty"`
	ROA           *float64 `json:"roa,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
}

// Sentiment labels attached to news items.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// NewsItem is one article about a ticker, most-recent-first in sequences.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Sentiment   string    `json:"sentiment"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Recommendation is the action a thesis settles on.
type Recommendation string

const (
	RecommendBuy  Recommendation = "buy"
	RecommendHold Recommendation = "hold"
	RecommendTrim Recommendation = "trim"
	RecommendExit Recommendation = "exit"
)

// Valid reports whether r is one of the four known actions.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendBuy, RecommendHold, RecommendTrim, RecommendExit:
		return true
	}
	return false
}

// InvestmentThesis is the structured output of one decision evaluation
// for one ticker. Produced exactly once per ticker per cycle.
type InvestmentThesis struct {
	Ticker         string         `json:"ticker"`
	Recommendation Recommendation `json:"recommendation"`
	Conviction     float64        `json:"conviction"`
	Quantitative   float64        `json:"quantitative_score"`
	Qualitative    float64        `json:"qualitative_score"`
	Stability      float64        `json:"stability_score"`
	Rationale      string         `json:"rationale"`
	Catalysts      []string       `json:"catalysts,omitempty"`
	Risks          []string       `json:"risks,omitempty"`
	// ReducedConfidence is set when a sub-score fell back to neutral
	// because every input behind it was missing.
	ReducedConfidence bool      `json:"reduced_confidence,omitempty"`
	GeneratedAt       time.Time `json:"ts"`
}

// PositionState captures the holding at the moment a thesis was written.
type PositionState struct {
	Held         bool    `json:"held"`
	Quantity     float64 `json:"quantity,omitempty"`
	AveragePrice float64 `json:"average_price,omitempty"`
	DaysHeld     int     `json:"days_held,omitempty"`
}

// Candidate is one shortlisted ticker eligible for a new position.
type Candidate struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap,omitempty"`
	AvgVolume float64 `json:"avg_volume,omitempty"`
}

// OrderResult is the broker's answer to a (mocked) trade.
type OrderResult struct {
	OrderID    string    `json:"order_id"`
	Ticker     string    `json:"ticker"`
	Side       string    `json:"side"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	TotalValue float64   `json:"total_value"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToolInvocation records one capability call inside an agent run, in call
// order. It lives only for the run and feeds the final report.
type ToolInvocation struct {
	Seq     int             `json:"seq"`
	Name    string          `json:"name"`
	Args    json.RawMessage `json:"args,omitempty"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}
