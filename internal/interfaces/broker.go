package interfaces

import (
	"context"

	"ai-investor/internal/types"
)

// OrderRequest describes a trade to place. Side is "buy" or "sell".
type OrderRequest struct {
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Broker is the brokerage surface the core consumes. The only shipped
// implementation is the mocked Nordnet client.
type Broker interface {
	Authenticate(ctx context.Context) error
	ListPositions(ctx context.Context) ([]types.Position, error)
	AvailableFunds(ctx context.Context) (types.Funds, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (types.OrderResult, error)
}
