package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-investor/internal/interfaces"
	"ai-investor/internal/tools"
	"ai-investor/internal/types"
)

type stubBroker struct {
	positions []types.Position
}

func (b *stubBroker) Authenticate(ctx context.Context) error { return nil }

func (b *stubBroker) ListPositions(ctx context.Context) ([]types.Position, error) {
	return b.positions, nil
}

func (b *stubBroker) AvailableFunds(ctx context.Context) (types.Funds, error) {
	return types.Funds{Currency: "USD", AvailableCash: 10000}, nil
}

func (b *stubBroker) PlaceOrder(ctx context.Context, req interfaces.OrderRequest) (types.OrderResult, error) {
	return types.OrderResult{OrderID: "T-1", Status: "simulated"}, nil
}

// scriptedPlanner replays a fixed sequence of actions, then keeps repeating
// the last one.
type scriptedPlanner struct {
	actions []Action
	err     error
	calls   int
	seen    []*Transcript
}

func (s *scriptedPlanner) NextAction(ctx context.Context, tr *Transcript) (Action, error) {
	s.calls++
	s.seen = append(s.seen, tr)
	if s.err != nil {
		return Action{}, s.err
	}
	i := s.calls - 1
	if i >= len(s.actions) {
		i = len(s.actions) - 1
	}
	return s.actions[i], nil
}

func testExecutor() *tools.Executor {
	broker := &stubBroker{positions: []types.Position{
		{Ticker: "AAPL", Quantity: 10, AveragePrice: 150.50, Currency: "USD"},
	}}
	return tools.NewExecutor(tools.Deps{Broker: broker})
}

func toolCall(id, name, args string) Action {
	return Action{ToolCalls: []ToolRequest{{ID: id, Name: name, Args: json.RawMessage(args)}}}
}

func TestLoopStopsOnFinalAnswer(t *testing.T) {
	planner := &scriptedPlanner{actions: []Action{
		toolCall("call_1", "fetch_positions", `{}`),
		{FinalAnswer: "Portfolio reviewed, no action required."},
	}}
	loop := NewLoop(planner, testExecutor(), 10)

	result, err := loop.Run(context.Background(), "Review the portfolio.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StopReason != StopFinalAnswer {
		t.Errorf("stop reason = %s, want %s", result.StopReason, StopFinalAnswer)
	}
	if result.FinalAnswer != "Portfolio reviewed, no action required." {
		t.Errorf("unexpected final answer %q", result.FinalAnswer)
	}
	if result.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", result.Iterations)
	}
	if len(result.Invocations) != 1 || result.Invocations[0].Name != "fetch_positions" {
		t.Fatalf("unexpected invocations: %+v", result.Invocations)
	}
	if !result.Invocations[0].Success {
		t.Errorf("fetch_positions should have succeeded: %s", result.Invocations[0].Error)
	}
}

func TestLoopEnforcesIterationCeiling(t *testing.T) {
	planner := &scriptedPlanner{actions: []Action{
		toolCall("call_1", "fetch_positions", `{}`),
	}}
	loop := NewLoop(planner, testExecutor(), 3)

	result, err := loop.Run(context.Background(), "Review the portfolio.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StopReason != StopMaxIterations {
		t.Errorf("stop reason = %s, want %s", result.StopReason, StopMaxIterations)
	}
	if result.Iterations != 3 || planner.calls != 3 {
		t.Errorf("iterations = %d, planner calls = %d, want 3/3", result.Iterations, planner.calls)
	}
	if len(result.Invocations) != 3 {
		t.Errorf("expected 3 invocations, got %d", len(result.Invocations))
	}
}

func TestLoopCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	planner := &scriptedPlanner{actions: []Action{
		toolCall("call_1", "fetch_positions", `{}`),
	}}
	loop := NewLoop(planner, testExecutor(), 100)

	cancel()
	result, err := loop.Run(ctx, "Review the portfolio.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.StopReason != StopCancelled {
		t.Errorf("stop reason = %s, want %s", result.StopReason, StopCancelled)
	}
	if planner.calls != 0 {
		t.Errorf("planner called %d times after cancellation", planner.calls)
	}
}

func TestLoopPlannerError(t *testing.T) {
	boom := errors.New("provider unavailable")
	planner := &scriptedPlanner{err: boom}
	loop := NewLoop(planner, testExecutor(), 10)

	result, err := loop.Run(context.Background(), "Review the portfolio.")
	if !errors.Is(err, boom) {
		t.Fatalf("expected planner error, got %v", err)
	}
	if result.StopReason != StopPlannerError {
		t.Errorf("stop reason = %s, want %s", result.StopReason, StopPlannerError)
	}
}

func TestLoopRecordsFailedCalls(t *testing.T) {
	planner := &scriptedPlanner{actions: []Action{
		{ToolCalls: []ToolRequest{
			{ID: "c1", Name: "fetch_positions", Args: json.RawMessage(`{}`)},
			{ID: "c2", Name: "no_such_tool", Args: json.RawMessage(`{}`)},
		}},
		{FinalAnswer: "done"},
	}}
	loop := NewLoop(planner, testExecutor(), 10)

	result, err := loop.Run(context.Background(), "Review the portfolio.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Invocations) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(result.Invocations))
	}
	if result.Invocations[0].Seq != 1 || result.Invocations[1].Seq != 2 {
		t.Errorf("sequence numbers out of order: %+v", result.Invocations)
	}
	if result.Invocations[1].Success || result.Invocations[1].Error == "" {
		t.Errorf("failed call not recorded as failure: %+v", result.Invocations[1])
	}

	// The failure must have been surfaced to the planner as an error
	// observation, not hidden.
	last := planner.seen[len(planner.seen)-1]
	if len(last.Steps) != 1 {
		t.Fatalf("expected 1 transcript step, got %d", len(last.Steps))
	}
	obs := last.Steps[0].Observations
	if len(obs) != 2 || !obs[1].IsError {
		t.Errorf("error observation missing: %+v", obs)
	}
}
