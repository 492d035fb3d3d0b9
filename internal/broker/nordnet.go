// Package broker holds the Nordnet client. Trading is mocked: orders are
// simulated against an in-memory book and never leave the process.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ai-investor/internal/interfaces"
	"ai-investor/internal/logger"
	"ai-investor/internal/types"
)

// ErrNotImplemented is returned by every live-mode operation.
var ErrNotImplemented = errors.New("real Nordnet integration not implemented")

var (
	errNotAuthenticated = errors.New("not authenticated")
	errUnknownSide      = errors.New("side must be 'buy' or 'sell'")
)

// Params configure the client. Mode "MOCK" is the only working mode.
type Params struct {
	Mode      string
	BaseURL   string
	Username  string
	AccountID string
	Currency  string
}

// Nordnet simulates a brokerage account seeded with a small dividend
// portfolio. Money arithmetic runs on decimals so repeated averaging of
// cost bases does not drift.
type Nordnet struct {
	mu            sync.Mutex
	params        Params
	authenticated bool
	positions     []mockPosition
	cash          decimal.Decimal
}

type mockPosition struct {
	ticker       string
	name         string
	quantity     decimal.Decimal
	averagePrice decimal.Decimal
	currentPrice decimal.Decimal
}

func New(p Params) *Nordnet {
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return &Nordnet{
		params: p,
		cash:   decimal.NewFromInt(10000),
		positions: []mockPosition{
			{
				ticker:       "AAPL",
				name:         "Apple Inc.",
				quantity:     decimal.NewFromInt(10),
				averagePrice: decimal.RequireFromString("150.50"),
				currentPrice: decimal.RequireFromString("175.20"),
			},
			{
				ticker:       "MSFT",
				name:         "Microsoft Corporation",
				quantity:     decimal.NewFromInt(5),
				averagePrice: decimal.NewFromInt(300),
				currentPrice: decimal.RequireFromString("350.75"),
			},
		},
	}
}

// Authenticate performs the (mocked) login handshake.
func (n *Nordnet) Authenticate(ctx context.Context) error {
	if n.params.Mode != "MOCK" {
		return ErrNotImplemented
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.authenticated = true
	logger.Info(ctx, "MOCK: authenticated to Nordnet",
		"username", n.params.Username, "account_id", n.params.AccountID)
	return nil
}

// ListPositions returns a fresh snapshot of the mock book.
func (n *Nordnet) ListPositions(ctx context.Context) ([]types.Position, error) {
	if err := n.requireAuth(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]types.Position, 0, len(n.positions))
	for _, p := range n.positions {
		out = append(out, types.Position{
			Ticker:       p.ticker,
			Name:         p.name,
			Quantity:     p.quantity.InexactFloat64(),
			AveragePrice: p.averagePrice.InexactFloat64(),
			CurrentPrice: p.currentPrice.InexactFloat64(),
			MarketValue:  p.quantity.Mul(p.currentPrice).InexactFloat64(),
			Currency:     n.params.Currency,
		})
	}
	return out, nil
}

// AvailableFunds reports cash and account value for the mock account.
func (n *Nordnet) AvailableFunds(ctx context.Context) (types.Funds, error) {
	if err := n.requireAuth(); err != nil {
		return types.Funds{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	invested := decimal.Zero
	for _, p := range n.positions {
		invested = invested.Add(p.quantity.Mul(p.currentPrice))
	}
	return types.Funds{
		Currency:      n.params.Currency,
		AvailableCash: n.cash.InexactFloat64(),
		InvestedValue: invested.InexactFloat64(),
		TotalValue:    n.cash.Add(invested).InexactFloat64(),
	}, nil
}

// PlaceOrder simulates an order and mutates the mock book: buys average
// into the cost basis, sells decrement and drop emptied positions.
func (n *Nordnet) PlaceOrder(ctx context.Context, req interfaces.OrderRequest) (types.OrderResult, error) {
	if err := n.requireAuth(); err != nil {
		return types.OrderResult{}, err
	}
	if req.Side != "buy" && req.Side != "sell" {
		return types.OrderResult{}, fmt.Errorf("%w: got '%s'", errUnknownSide, req.Side)
	}
	if req.Quantity <= 0 {
		return types.OrderResult{}, fmt.Errorf("quantity must be positive, got %d", req.Quantity)
	}
	if req.Price <= 0 {
		return types.OrderResult{}, fmt.Errorf("price must be positive, got %.2f", req.Price)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	qty := decimal.NewFromInt(int64(req.Quantity))
	price := decimal.NewFromFloat(req.Price)
	total := qty.Mul(price)
	now := time.Now().UTC()

	switch req.Side {
	case "buy":
		n.cash = n.cash.Sub(total)
		if pos := n.find(req.Ticker); pos != nil {
			cost := pos.quantity.Mul(pos.averagePrice).Add(total)
			pos.quantity = pos.quantity.Add(qty)
			pos.averagePrice = cost.DivRound(pos.quantity, 4)
			pos.currentPrice = price
		} else {
			n.positions = append(n.positions, mockPosition{
				ticker:       req.Ticker,
				name:         req.Ticker + " (simulated)",
				quantity:     qty,
				averagePrice: price,
				currentPrice: price,
			})
		}
	case "sell":
		n.cash = n.cash.Add(total)
		if pos := n.find(req.Ticker); pos != nil {
			pos.quantity = pos.quantity.Sub(qty)
			if pos.quantity.Sign() <= 0 {
				n.remove(req.Ticker)
			}
		}
	}

	order := types.OrderResult{
		OrderID:    fmt.Sprintf("MOCK-%s-%s", now.Format("20060102150405"), req.Ticker),
		Ticker:     req.Ticker,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		TotalValue: total.InexactFloat64(),
		Status:     "simulated",
		Timestamp:  now,
	}
	logger.Trade(ctx, req.Ticker, req.Side, req.Quantity, req.Price, order.OrderID,
		"total_value", order.TotalValue)
	return order, nil
}

func (n *Nordnet) requireAuth() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.authenticated {
		return errNotAuthenticated
	}
	return nil
}

func (n *Nordnet) find(ticker string) *mockPosition {
	for i := range n.positions {
		if n.positions[i].ticker == ticker {
			return &n.positions[i]
		}
	}
	return nil
}

func (n *Nordnet) remove(ticker string) {
	for i := range n.positions {
		if n.positions[i].ticker == ticker {
			n.positions = append(n.positions[:i], n.positions[i+1:]...)
			return
		}
	}
}
