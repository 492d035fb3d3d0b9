// Package agent runs the bounded tool-calling loop that drives one
// portfolio review. A planner proposes actions; the loop executes them
// against the capability executor until the planner answers or a limit
// trips.
package agent

import (
	"context"
	"encoding/json"
)

// ToolRequest is one tool call the planner asked for.
type ToolRequest struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Observation is the executor's answer to one ToolRequest, keyed by the
// request ID so the planner can match them up.
type Observation struct {
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Action is the planner's next move: either a batch of tool calls or a
// final answer. Exactly one of the two is populated. Raw carries the
// planner's verbatim output so provider-backed planners can rebuild their
// own transcript faithfully.
type Action struct {
	ToolCalls   []ToolRequest
	FinalAnswer string
	Raw         json.RawMessage
}

// Final reports whether the action ends the run.
func (a Action) Final() bool { return len(a.ToolCalls) == 0 }

// Step is one completed planner round: what the planner said and what the
// tools answered.
type Step struct {
	Raw          json.RawMessage
	ToolCalls    []ToolRequest
	Observations []Observation
}

// Transcript accumulates the conversation state a planner needs to decide
// its next action.
type Transcript struct {
	Goal  string
	Steps []Step
}

// Planner decides the next action given the transcript so far.
// Implementations must be safe to call sequentially from one goroutine.
type Planner interface {
	NextAction(ctx context.Context, tr *Transcript) (Action, error)
}
