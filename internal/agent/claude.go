package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ai-investor/internal/logger"
	"ai-investor/internal/tools"
	"ai-investor/internal/trace"
)

// ErrMissingAPIKey is returned when the Claude planner runs without a key.
var ErrMissingAPIKey = errors.New("CLAUDE_API_KEY missing")

const (
	defaultEndpoint  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// ClaudeConfig holds the model parameters for the planner.
type ClaudeConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
}

// ClaudePlanner proposes actions through the Anthropic messages API using
// native tool-use blocks. The transcript is rebuilt from scratch on every
// round; the planner itself holds no conversation state.
type ClaudePlanner struct {
	cfg      ClaudeConfig
	endpoint string
	client   *http.Client
	schemas  []tools.Schema
}

func NewClaudePlanner(cfg ClaudeConfig) *ClaudePlanner {
	// Proxy and gateway deployments override the endpoint via env.
	endpoint := defaultEndpoint
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &ClaudePlanner{
		cfg:      cfg,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		schemas:  tools.Schemas(),
	}
}

type apiMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type apiRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
	System      string         `json:"system,omitempty"`
	Tools       []tools.Schema `json:"tools"`
	Messages    []apiMessage   `json:"messages"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type apiResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type toolResultBlock struct {
	Type      string          `json:"type"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// NextAction sends the rebuilt conversation and maps the response onto an
// Action. tool_use blocks become tool calls; a text-only turn is the final
// answer.
func (p *ClaudePlanner) NextAction(ctx context.Context, tr *Transcript) (Action, error) {
	ctx, span := trace.StartSpan(ctx, "claude-plan")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return Action{}, ErrMissingAPIKey
	}

	messages, err := p.buildMessages(tr)
	if err != nil {
		return Action{}, err
	}
	body, err := json.Marshal(apiRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		System:      p.cfg.System,
		Tools:       p.schemas,
		Messages:    messages,
	})
	if err != nil {
		return Action{}, fmt.Errorf("encoding claude request: %w", err)
	}

	logger.Debug(ctx, "Sending request to Claude",
		"model", p.cfg.Model, "rounds", len(tr.Steps), "endpoint", p.endpoint)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Action{}, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		logger.ErrorWithErr(ctx, "Claude API request failed", err, "latency_ms", latency.Milliseconds())
		return Action{}, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Action{}, fmt.Errorf("reading claude response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Action{}, fmt.Errorf("claude http %d: %s", resp.StatusCode, string(respBytes))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return Action{}, fmt.Errorf("decoding claude response: %w", err)
	}
	if parsed.Error != nil {
		return Action{}, fmt.Errorf("claude %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	rawContent, err := json.Marshal(parsed.Content)
	if err != nil {
		return Action{}, err
	}
	action := Action{Raw: rawContent}

	var texts []string
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			action.ToolCalls = append(action.ToolCalls, ToolRequest{
				ID:   block.ID,
				Name: block.Name,
				Args: block.Input,
			})
		}
	}
	if action.Final() {
		action.FinalAnswer = strings.TrimSpace(strings.Join(texts, "\n"))
	}

	logger.Debug(ctx, "Claude response received",
		"stop_reason", parsed.StopReason,
		"tool_calls", len(action.ToolCalls),
		"latency_ms", latency.Milliseconds(),
	)
	return action, nil
}

// buildMessages reconstructs the alternating user/assistant transcript the
// API requires: goal, then per round the assistant's verbatim content
// followed by the matching tool_result blocks.
func (p *ClaudePlanner) buildMessages(tr *Transcript) ([]apiMessage, error) {
	goal, err := json.Marshal(tr.Goal)
	if err != nil {
		return nil, err
	}
	messages := []apiMessage{{Role: "user", Content: goal}}

	for _, step := range tr.Steps {
		messages = append(messages, apiMessage{Role: "assistant", Content: step.Raw})

		results := make([]toolResultBlock, 0, len(step.Observations))
		for _, obs := range step.Observations {
			block := toolResultBlock{Type: "tool_result", ToolUseID: obs.ID}
			if obs.IsError {
				block.IsError = true
				msg, err := json.Marshal(obs.Error)
				if err != nil {
					return nil, err
				}
				block.Content = msg
			} else {
				block.Content = obs.Content
			}
			results = append(results, block)
		}
		content, err := json.Marshal(results)
		if err != nil {
			return nil, err
		}
		messages = append(messages, apiMessage{Role: "user", Content: content})
	}
	return messages, nil
}
