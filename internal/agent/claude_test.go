package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClaude(t *testing.T, handler http.HandlerFunc) *ClaudePlanner {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("CLAUDE_API_ENDPOINT", srv.URL)
	t.Setenv("CLAUDE_API_KEY", "test-key")
	return NewClaudePlanner(ClaudeConfig{Model: "claude-3-5-sonnet-latest", MaxTokens: 1024})
}

func TestClaudePlannerParsesToolUse(t *testing.T) {
	var captured apiRequest
	planner := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Checking the portfolio first."},
				{"type": "tool_use", "id": "toolu_01", "name": "fetch_positions", "input": {}}
			]
		}`))
	})

	action, err := planner.NextAction(context.Background(), &Transcript{Goal: "Review."})
	if err != nil {
		t.Fatalf("NextAction: %v", err)
	}
	if action.Final() {
		t.Fatal("tool_use response treated as final")
	}
	if len(action.ToolCalls) != 1 || action.ToolCalls[0].Name != "fetch_positions" || action.ToolCalls[0].ID != "toolu_01" {
		t.Errorf("unexpected tool calls: %+v", action.ToolCalls)
	}
	if len(action.Raw) == 0 {
		t.Error("raw content not preserved")
	}
	if len(captured.Tools) == 0 {
		t.Error("tool schemas not sent")
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("unexpected messages: %+v", captured.Messages)
	}
}

func TestClaudePlannerFinalAnswer(t *testing.T) {
	planner := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": "All positions held, nothing to do."}]
		}`))
	})

	action, err := planner.NextAction(context.Background(), &Transcript{Goal: "Review."})
	if err != nil {
		t.Fatalf("NextAction: %v", err)
	}
	if !action.Final() || action.FinalAnswer != "All positions held, nothing to do." {
		t.Errorf("unexpected action: %+v", action)
	}
}

func TestClaudePlannerRebuildsTranscript(t *testing.T) {
	var captured apiRequest
	planner := newTestClaude(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stop_reason": "end_turn", "content": [{"type": "text", "text": "done"}]}`))
	})

	tr := &Transcript{
		Goal: "Review.",
		Steps: []Step{{
			Raw:       json.RawMessage(`[{"type":"tool_use","id":"toolu_01","name":"fetch_funds","input":{}}]`),
			ToolCalls: []ToolRequest{{ID: "toolu_01", Name: "fetch_funds"}},
			Observations: []Observation{
				{ID: "toolu_01", Content: json.RawMessage(`{"available_cash":10000}`)},
			},
		}},
	}
	if _, err := planner.NextAction(context.Background(), tr); err != nil {
		t.Fatalf("NextAction: %v", err)
	}

	// goal, assistant turn, tool results
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	roles := []string{"user", "assistant", "user"}
	for i, want := range roles {
		if captured.Messages[i].Role != want {
			t.Errorf("message %d role = %s, want %s", i, captured.Messages[i].Role, want)
		}
	}
	var results []toolResultBlock
	if err := json.Unmarshal(captured.Messages[2].Content, &results); err != nil {
		t.Fatalf("decode tool results: %v", err)
	}
	if len(results) != 1 || results[0].ToolUseID != "toolu_01" || results[0].Type != "tool_result" {
		t.Errorf("unexpected tool results: %+v", results)
	}
}

func TestClaudePlannerMissingKey(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")
	planner := NewClaudePlanner(ClaudeConfig{Model: "m"})
	if _, err := planner.NextAction(context.Background(), &Transcript{Goal: "g"}); err != ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
