package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-investor/internal/agent"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/types"
)

func TestBuildReport(t *testing.T) {
	in := Input{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Mode:        "MOCK",
		Positions: []types.Position{
			{Ticker: "AAPL", Quantity: 10, AveragePrice: 150.50, CurrentPrice: 175.20, MarketValue: 1752, Currency: "USD"},
		},
		Funds: types.Funds{Currency: "USD", AvailableCash: 10000},
		Theses: []thesislog.Entry{
			{InvestmentThesis: types.InvestmentThesis{
				Ticker: "AAPL", Recommendation: types.RecommendHold, Conviction: 0.62,
				Risks: []string{"elevated debt-to-equity (1.80)"},
			}},
			{InvestmentThesis: types.InvestmentThesis{
				Ticker: "JNJ", Recommendation: types.RecommendBuy, Conviction: 0.78,
				ReducedConfidence: true,
			}},
		},
		Run: agent.Result{
			FinalAnswer: "Bought JNJ, held AAPL.",
			StopReason:  agent.StopFinalAnswer,
			Iterations:  4,
			Elapsed:     2500 * time.Millisecond,
			Invocations: []types.ToolInvocation{
				{Seq: 1, Name: "fetch_positions", Success: true},
				{Seq: 2, Name: "fetch_fundamentals", Error: "upstream: provider down"},
			},
		},
	}

	out := Build(in)

	for _, want := range []string{
		"AAPL: HOLD (conviction 0.62)",
		"JNJ: BUY (conviction 0.78)",
		"[reduced confidence]",
		"- elevated debt-to-equity (1.80)",
		"Bought JNJ, held AAPL.",
		"final_answer after 4 iterations",
		"fetch_fundamentals",
		"FAILED",
		"1 of 2 calls failed.",
		"Available cash: 10000.00 USD",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n---\n%s", want, out)
		}
	}
}

func TestEmailerEnabled(t *testing.T) {
	if (&Emailer{}).Enabled() {
		t.Error("empty config should not be enabled")
	}
	e := NewEmailer(EmailConfig{Host: "localhost", Port: 25, From: "bot@example.com", Recipient: "me@example.com"})
	if !e.Enabled() {
		t.Error("complete config should be enabled")
	}
	if err := (&Emailer{}).Send(context.Background(), "s", "b"); err == nil {
		t.Error("unconfigured send should fail")
	}
}
