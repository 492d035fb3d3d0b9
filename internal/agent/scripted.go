package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-investor/internal/tools"
	"ai-investor/internal/types"
)

// ScriptedPlanner is the offline planner used when no model API key is
// configured. It walks a fixed review plan: inventory the portfolio and
// shortlist, evaluate every ticker, then summarize. Useful for dry runs
// and for exercising the loop end to end in tests.
type ScriptedPlanner struct {
	maxCandidates int
}

func NewScriptedPlanner(maxCandidates int) *ScriptedPlanner {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &ScriptedPlanner{maxCandidates: maxCandidates}
}

func (p *ScriptedPlanner) NextAction(ctx context.Context, tr *Transcript) (Action, error) {
	switch len(tr.Steps) {
	case 0:
		return Action{ToolCalls: []ToolRequest{
			{ID: "scripted-positions", Name: string(tools.CapFetchPositions), Args: json.RawMessage(`{}`)},
			{ID: "scripted-candidates", Name: string(tools.CapFetchCandidates), Args: json.RawMessage(`{}`)},
		}}, nil
	case 1:
		tickers := p.tickersFrom(tr.Steps[0])
		if len(tickers) == 0 {
			return Action{FinalAnswer: "No positions or candidates to review."}, nil
		}
		calls := make([]ToolRequest, 0, len(tickers))
		for i, ticker := range tickers {
			args, err := json.Marshal(map[string]string{"ticker": ticker})
			if err != nil {
				return Action{}, err
			}
			calls = append(calls, ToolRequest{
				ID:   fmt.Sprintf("scripted-eval-%d", i+1),
				Name: string(tools.CapEvaluateDecision),
				Args: args,
			})
		}
		return Action{ToolCalls: calls}, nil
	default:
		return Action{FinalAnswer: p.summarize(tr.Steps[1])}, nil
	}
}

// tickersFrom merges held tickers with shortlist candidates, positions
// first, deduplicated.
func (p *ScriptedPlanner) tickersFrom(step Step) []string {
	var tickers []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}

	for _, obs := range step.Observations {
		if obs.IsError {
			continue
		}
		switch obs.ID {
		case "scripted-positions":
			var out struct {
				Positions []types.Position `json:"positions"`
			}
			if json.Unmarshal(obs.Content, &out) == nil {
				for _, pos := range out.Positions {
					add(pos.Ticker)
				}
			}
		case "scripted-candidates":
			var out struct {
				Candidates []types.Candidate `json:"candidates"`
			}
			if json.Unmarshal(obs.Content, &out) == nil {
				n := 0
				for _, c := range out.Candidates {
					if n >= p.maxCandidates {
						break
					}
					if !seen[strings.ToUpper(c.Ticker)] {
						n++
					}
					add(c.Ticker)
				}
			}
		}
	}
	return tickers
}

func (p *ScriptedPlanner) summarize(step Step) string {
	var lines []string
	lines = append(lines, "Scripted portfolio review complete.")
	for _, obs := range step.Observations {
		if obs.IsError {
			lines = append(lines, fmt.Sprintf("- evaluation failed: %s", obs.Error))
			continue
		}
		var thesis types.InvestmentThesis
		if err := json.Unmarshal(obs.Content, &thesis); err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (conviction %.2f)",
			thesis.Ticker, strings.ToUpper(string(thesis.Recommendation)), thesis.Conviction))
	}
	return strings.Join(lines, "\n")
}
