// Package tools executes the closed set of capabilities the agent may
// invoke. The executor is the only boundary between the planner's free-form
// requests and the typed domain services behind them.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-investor/internal/decision"
	"ai-investor/internal/interfaces"
	"ai-investor/internal/logger"
	"ai-investor/internal/marketdata"
	"ai-investor/internal/shortlist"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/trace"
	"ai-investor/internal/types"
)

// Capability names the callable tools. The set is closed: anything else is
// rejected with unknown_capability before any handler runs.
type Capability string

const (
	CapFetchPositions    Capability = "fetch_positions"
	CapFetchFunds        Capability = "fetch_funds"
	CapFetchFundamentals Capability = "fetch_fundamentals"
	CapFetchNews         Capability = "fetch_news"
	CapFetchCandidates   Capability = "fetch_candidates"
	CapFetchSnapshots    Capability = "fetch_snapshots"
	CapEvaluateDecision  Capability = "evaluate_decision"
	CapExecuteTrade      Capability = "execute_trade"
)

// Executor dispatches capability calls onto the domain services. One
// executor serves one agent run; it is safe for concurrent batch fan-out.
type Executor struct {
	broker    interfaces.Broker
	data      interfaces.MarketData
	engine    *decision.Engine
	shortlist *shortlist.Pipeline
	log       thesislog.Store

	lookbackDays int
	callTimeout  time.Duration
}

type Deps struct {
	Broker    interfaces.Broker
	Data      interfaces.MarketData
	Engine    *decision.Engine
	Shortlist *shortlist.Pipeline
	Log       thesislog.Store

	LookbackDays int
	CallTimeout  time.Duration
}

func NewExecutor(d Deps) *Executor {
	if d.LookbackDays <= 0 {
		d.LookbackDays = 30
	}
	if d.CallTimeout <= 0 {
		d.CallTimeout = 30 * time.Second
	}
	return &Executor{
		broker:       d.Broker,
		data:         d.Data,
		engine:       d.Engine,
		shortlist:    d.Shortlist,
		log:          d.Log,
		lookbackDays: d.LookbackDays,
		callTimeout:  d.CallTimeout,
	}
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

func (x *Executor) handlers() map[Capability]handler {
	return map[Capability]handler{
		CapFetchPositions:    x.fetchPositions,
		CapFetchFunds:        x.fetchFunds,
		CapFetchFundamentals: x.fetchFundamentals,
		CapFetchNews:         x.fetchNews,
		CapFetchCandidates:   x.fetchCandidates,
		CapFetchSnapshots:    x.fetchSnapshots,
		CapEvaluateDecision:  x.evaluateDecision,
		CapExecuteTrade:      x.executeTrade,
	}
}

// Execute runs one capability call and returns its JSON result. Every
// failure comes back as a *ToolError; the call itself never panics the run.
func (x *Executor) Execute(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "tool-"+name)
	defer span.End()

	h, ok := x.handlers()[Capability(name)]
	if !ok {
		logger.Capability(ctx, name, false, "reason", "unknown")
		return nil, newToolError(KindUnknownCapability, "no capability named %q", name)
	}

	callCtx, cancel := context.WithTimeout(ctx, x.callTimeout)
	defer cancel()

	result, err := h(callCtx, args)
	if err != nil {
		terr := classify(name, err)
		logger.Capability(ctx, name, false, "kind", string(terr.Kind), "error", terr.Message)
		return nil, terr
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, newToolError(KindUpstream, "encoding %s result: %v", name, err)
	}
	logger.Capability(ctx, name, true)
	return payload, nil
}

// classify maps a handler error onto the taxonomy the planner sees.
func classify(name string, err error) *ToolError {
	var terr *ToolError
	if errors.As(err, &terr) {
		return terr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newToolError(KindTimeout, "%s timed out", name)
	case errors.Is(err, context.Canceled):
		return newToolError(KindCancelled, "%s cancelled", name)
	case errors.Is(err, decision.ErrInvalidInput):
		return newToolError(KindBadRequest, "%v", err)
	case errors.Is(err, marketdata.ErrMissingAPIKey):
		return newToolError(KindUpstream, "%v", err)
	}
	return newToolError(KindUpstream, "%s: %v", name, err)
}

func decodeArgs(args json.RawMessage, out any) error {
	if len(args) == 0 {
		return newToolError(KindBadRequest, "missing arguments")
	}
	dec := json.NewDecoder(strings.NewReader(string(args)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return newToolError(KindBadRequest, "malformed arguments: %v", err)
	}
	return nil
}

type tickerArgs struct {
	Ticker string `json:"ticker"`
}

func (a tickerArgs) validate() error {
	if strings.TrimSpace(a.Ticker) == "" {
		return newToolError(KindBadRequest, "ticker is required")
	}
	return nil
}

func (x *Executor) fetchPositions(ctx context.Context, _ json.RawMessage) (any, error) {
	positions, err := x.broker.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"positions": positions, "count": len(positions)}, nil
}

func (x *Executor) fetchFunds(ctx context.Context, _ json.RawMessage) (any, error) {
	funds, err := x.broker.AvailableFunds(ctx)
	if err != nil {
		return nil, err
	}
	return funds, nil
}

func (x *Executor) fetchFundamentals(ctx context.Context, args json.RawMessage) (any, error) {
	var a tickerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return x.data.Fundamentals(ctx, a.Ticker)
}

func (x *Executor) fetchNews(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		Ticker       string `json:"ticker"`
		LookbackDays int    `json:"lookback_days,omitempty"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Ticker) == "" {
		return nil, newToolError(KindBadRequest, "ticker is required")
	}
	lookback := a.LookbackDays
	if lookback <= 0 {
		lookback = x.lookbackDays
	}
	items, err := x.data.News(ctx, a.Ticker, lookback)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ticker": a.Ticker, "articles": items, "count": len(items)}, nil
}

func (x *Executor) fetchCandidates(ctx context.Context, _ json.RawMessage) (any, error) {
	cache, err := x.shortlist.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"candidates": cache.Tickers, "count": len(cache.Tickers)}, nil
}

// evaluateDecision runs the full scoring pipeline for one ticker and
// appends the resulting thesis to the audit log. The engine itself never
// writes; the append happens here so batch evaluations share one code path.
// Callers that already hold a snapshot (from fetch_snapshots, say) can pass
// fundamentals and news inline; absent inputs are fetched.
func (x *Executor) evaluateDecision(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		Ticker       string                      `json:"ticker"`
		Fundamentals *types.FundamentalsSnapshot `json:"fundamentals,omitempty"`
		News         []types.NewsItem            `json:"news,omitempty"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Ticker) == "" {
		return nil, newToolError(KindBadRequest, "ticker is required")
	}

	var fundamentals types.FundamentalsSnapshot
	if a.Fundamentals != nil {
		fundamentals = *a.Fundamentals
		fundamentals.Ticker = a.Ticker
	} else {
		var err error
		fundamentals, err = x.data.Fundamentals(ctx, a.Ticker)
		if err != nil {
			return nil, fmt.Errorf("fundamentals for %s: %w", a.Ticker, err)
		}
	}

	news := a.News
	if news == nil {
		var err error
		news, err = x.data.News(ctx, a.Ticker, x.lookbackDays)
		if err != nil {
			logger.Warn(ctx, "News unavailable, evaluating without sentiment",
				"ticker", a.Ticker, "error", err)
			news = nil
		}
	}

	position, err := x.findPosition(ctx, a.Ticker)
	if err != nil {
		return nil, err
	}

	thesis, err := x.engine.Evaluate(ctx, decision.EvalInput{
		Ticker:       a.Ticker,
		Fundamentals: fundamentals,
		News:         news,
		Position:     position,
	})
	if err != nil {
		return nil, err
	}

	entry := thesislog.Entry{InvestmentThesis: thesis}
	if position != nil {
		entry.Position = types.PositionState{
			Held:         true,
			Quantity:     position.Quantity,
			AveragePrice: position.AveragePrice,
		}
	}
	if err := x.log.Append(entry); err != nil {
		return nil, fmt.Errorf("recording thesis for %s: %w", a.Ticker, err)
	}
	return thesis, nil
}

func (x *Executor) findPosition(ctx context.Context, ticker string) (*types.Position, error) {
	positions, err := x.broker.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions lookup: %w", err)
	}
	for i := range positions {
		if strings.EqualFold(positions[i].Ticker, ticker) {
			return &positions[i], nil
		}
	}
	return nil, nil
}

func (x *Executor) executeTrade(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		Ticker   string  `json:"ticker"`
		Side     string  `json:"side"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch {
	case strings.TrimSpace(a.Ticker) == "":
		return nil, newToolError(KindBadRequest, "ticker is required")
	case a.Side != "buy" && a.Side != "sell":
		return nil, newToolError(KindBadRequest, "side must be 'buy' or 'sell', got %q", a.Side)
	case a.Quantity <= 0:
		return nil, newToolError(KindBadRequest, "quantity must be positive, got %d", a.Quantity)
	case a.Price <= 0:
		return nil, newToolError(KindBadRequest, "price must be positive, got %.2f", a.Price)
	}

	result, err := x.broker.PlaceOrder(ctx, interfaces.OrderRequest{
		Ticker:   a.Ticker,
		Side:     a.Side,
		Quantity: a.Quantity,
		Price:    a.Price,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
