// Package report renders and delivers the end-of-run summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"ai-investor/internal/agent"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/types"
)

// Input is everything one report needs.
type Input struct {
	GeneratedAt time.Time
	Mode        string
	Positions   []types.Position
	Funds       types.Funds
	Theses      []thesislog.Entry
	Run         agent.Result
}

// Build renders the plain-text run report: portfolio overview, the theses
// written this run, the agent's reasoning and a tool-call summary that
// includes failures.
func Build(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "AI Investor Run Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", in.GeneratedAt.UTC().Format(time.RFC3339))
	if in.Mode != "" {
		fmt.Fprintf(&b, "Mode: %s\n", in.Mode)
	}
	b.WriteString("\n")

	b.WriteString("== Portfolio ==\n")
	if len(in.Positions) == 0 {
		b.WriteString("No open positions.\n")
	}
	for _, p := range in.Positions {
		fmt.Fprintf(&b, "%-6s %8.0f @ %10.2f  now %10.2f  value %12.2f %s\n",
			p.Ticker, p.Quantity, p.AveragePrice, p.CurrentPrice, p.MarketValue, p.Currency)
	}
	fmt.Fprintf(&b, "Available cash: %.2f %s\n\n", in.Funds.AvailableCash, in.Funds.Currency)

	b.WriteString("== Decisions ==\n")
	if len(in.Theses) == 0 {
		b.WriteString("No theses written this run.\n")
	}
	for _, t := range in.Theses {
		fmt.Fprintf(&b, "%s: %s (conviction %.2f)", t.Ticker,
			strings.ToUpper(string(t.Recommendation)), t.Conviction)
		if t.ReducedConfidence {
			b.WriteString(" [reduced confidence]")
		}
		b.WriteString("\n")
		for _, c := range t.Catalysts {
			fmt.Fprintf(&b, "  + %s\n", c)
		}
		for _, r := range t.Risks {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	b.WriteString("\n")

	b.WriteString("== Agent Run ==\n")
	fmt.Fprintf(&b, "Stop reason: %s after %d iterations (%d tool calls, %s)\n",
		in.Run.StopReason, in.Run.Iterations, len(in.Run.Invocations),
		in.Run.Elapsed.Round(time.Millisecond))
	if in.Run.FinalAnswer != "" {
		fmt.Fprintf(&b, "\n%s\n", in.Run.FinalAnswer)
	}
	b.WriteString("\n")

	b.WriteString("== Tool Calls ==\n")
	failed := 0
	for _, inv := range in.Run.Invocations {
		status := "ok"
		if !inv.Success {
			status = "FAILED"
			failed++
		}
		fmt.Fprintf(&b, "%3d. %-20s %s", inv.Seq, inv.Name, status)
		if inv.Error != "" {
			fmt.Fprintf(&b, " (%s)", inv.Error)
		}
		b.WriteString("\n")
	}
	if failed > 0 {
		fmt.Fprintf(&b, "%d of %d calls failed.\n", failed, len(in.Run.Invocations))
	}
	return b.String()
}
