package broker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-investor/internal/interfaces"
)

func mockClient(t *testing.T) *Nordnet {
	t.Helper()
	n := New(Params{Mode: "MOCK", Username: "tester", AccountID: "1", Currency: "USD"})
	if err := n.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return n
}

func TestRequiresAuthentication(t *testing.T) {
	n := New(Params{Mode: "MOCK"})
	if _, err := n.ListPositions(context.Background()); err == nil {
		t.Error("expected error before authentication")
	}
}

func TestLiveModeNotImplemented(t *testing.T) {
	n := New(Params{Mode: "LIVE"})
	if err := n.Authenticate(context.Background()); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestListPositionsSeed(t *testing.T) {
	n := mockClient(t)
	positions, err := n.ListPositions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 seeded positions, got %d", len(positions))
	}
	if positions[0].Ticker != "AAPL" || positions[0].Quantity != 10 {
		t.Errorf("unexpected first position: %+v", positions[0])
	}
	if positions[0].MarketValue != 1752.0 {
		t.Errorf("market value should be quantity*current: got %f", positions[0].MarketValue)
	}
}

func TestBuyAveragesIntoPosition(t *testing.T) {
	n := mockClient(t)
	order, err := n.PlaceOrder(context.Background(), interfaces.OrderRequest{
		Ticker: "AAPL", Side: "buy", Quantity: 10, Price: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != "simulated" {
		t.Errorf("expected simulated status, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderID, "MOCK-") {
		t.Errorf("order id should be mock-prefixed, got %s", order.OrderID)
	}
	if order.TotalValue != 1000 {
		t.Errorf("total value: got %f want 1000", order.TotalValue)
	}

	positions, _ := n.ListPositions(context.Background())
	for _, p := range positions {
		if p.Ticker == "AAPL" {
			if p.Quantity != 20 {
				t.Errorf("quantity after buy: got %f want 20", p.Quantity)
			}
			// (10*150.50 + 10*100) / 20 = 125.25
			if p.AveragePrice != 125.25 {
				t.Errorf("average price after buy: got %f want 125.25", p.AveragePrice)
			}
			return
		}
	}
	t.Fatal("AAPL position missing after buy")
}

func TestSellRemovesEmptiedPosition(t *testing.T) {
	n := mockClient(t)
	if _, err := n.PlaceOrder(context.Background(), interfaces.OrderRequest{
		Ticker: "MSFT", Side: "sell", Quantity: 5, Price: 350,
	}); err != nil {
		t.Fatal(err)
	}
	positions, _ := n.ListPositions(context.Background())
	for _, p := range positions {
		if p.Ticker == "MSFT" {
			t.Fatalf("MSFT should be removed after selling out, still %+v", p)
		}
	}
}

func TestBuyOpensNewPosition(t *testing.T) {
	n := mockClient(t)
	if _, err := n.PlaceOrder(context.Background(), interfaces.OrderRequest{
		Ticker: "NVO", Side: "buy", Quantity: 4, Price: 95.5,
	}); err != nil {
		t.Fatal(err)
	}
	positions, _ := n.ListPositions(context.Background())
	found := false
	for _, p := range positions {
		if p.Ticker == "NVO" {
			found = true
			if p.AveragePrice != 95.5 || p.Quantity != 4 {
				t.Errorf("new position wrong: %+v", p)
			}
		}
	}
	if !found {
		t.Error("buy of unheld ticker should open a position")
	}
}

func TestOrderValidation(t *testing.T) {
	n := mockClient(t)
	cases := []interfaces.OrderRequest{
		{Ticker: "AAPL", Side: "short", Quantity: 1, Price: 1},
		{Ticker: "AAPL", Side: "buy", Quantity: 0, Price: 1},
		{Ticker: "AAPL", Side: "buy", Quantity: 1, Price: -2},
	}
	for i, req := range cases {
		if _, err := n.PlaceOrder(context.Background(), req); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, req)
		}
	}
}

func TestFundsTrackTrades(t *testing.T) {
	n := mockClient(t)
	before, err := n.AvailableFunds(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := n.PlaceOrder(context.Background(), interfaces.OrderRequest{
		Ticker: "NVO", Side: "buy", Quantity: 10, Price: 100,
	}); err != nil {
		t.Fatal(err)
	}
	after, _ := n.AvailableFunds(context.Background())
	if after.AvailableCash != before.AvailableCash-1000 {
		t.Errorf("cash should drop by 1000: before %f after %f", before.AvailableCash, after.AvailableCash)
	}
	if after.Currency != "USD" {
		t.Errorf("currency: got %s", after.Currency)
	}
}
