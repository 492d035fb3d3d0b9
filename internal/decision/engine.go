package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-investor/internal/logger"
	"ai-investor/internal/scoring"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/trace"
	"ai-investor/internal/types"
)

// ErrInvalidInput marks structurally broken evaluation inputs. It aborts
// one ticker's evaluation only; data-quality gaps never trigger it.
var ErrInvalidInput = errors.New("invalid evaluation input")

// EvalInput is everything one evaluation needs. Position is nil for
// tickers that are not currently held.
type EvalInput struct {
	Ticker       string
	Fundamentals types.FundamentalsSnapshot
	News         []types.NewsItem
	Position     *types.Position
}

// Engine composes the score calculator, holding-period tracker and
// threshold policy into a single evaluation facade. Evaluate is pure over
// its inputs plus a read of the thesis log; appending the result to the
// log is the caller's job.
type Engine struct {
	policy PolicyConfig
	quant  scoring.QuantWeights
	log    thesislog.Store
	now    func() time.Time
}

func NewEngine(policy PolicyConfig, log thesislog.Store) *Engine {
	return &Engine{
		policy: policy,
		quant:  scoring.DefaultQuantWeights(),
		log:    log,
		now:    time.Now,
	}
}

// Evaluate produces a fully-populated thesis for one ticker.
func (e *Engine) Evaluate(ctx context.Context, in EvalInput) (types.InvestmentThesis, error) {
	ctx, span := trace.StartSpan(ctx, "evaluate-decision")
	defer span.End()

	if strings.TrimSpace(in.Ticker) == "" {
		return types.InvestmentThesis{}, fmt.Errorf("%w: empty ticker", ErrInvalidInput)
	}
	if in.Position != nil && in.Position.Quantity < 0 {
		return types.InvestmentThesis{}, fmt.Errorf("%w: negative quantity %.2f for %s",
			ErrInvalidInput, in.Position.Quantity, in.Ticker)
	}

	quant := scoring.Quantitative(in.Fundamentals, e.quant)
	qual := scoring.Qualitative(in.News)
	stability := scoring.Stability(in.Fundamentals)
	blended := e.policy.Blend(quant.Value, qual.Value, stability.Value)

	held := in.Position != nil && in.Position.Quantity > 0
	now := e.now().UTC()

	state := StateNew
	daysHeld := 0
	if held {
		// A held position with no BUY on record is treated as freshly
		// bought: the protection window applies until the log says
		// otherwise.
		days, ok, err := thesislog.DaysHeld(e.log, in.Ticker, now)
		if err != nil {
			return types.InvestmentThesis{}, fmt.Errorf("holding period for %s: %w", in.Ticker, err)
		}
		if ok {
			daysHeld = days
		}
		if daysHeld < e.policy.MinHoldingDays {
			state = StateWithinMinHold
		} else {
			state = StatePastMinHold
		}
	}

	rec := e.policy.Recommend(state, blended)
	reduced := quant.Defaulted || qual.Defaulted || stability.Defaulted

	thesis := types.InvestmentThesis{
		Ticker:            in.Ticker,
		Recommendation:    rec,
		Conviction:        blended,
		Quantitative:      quant.Value,
		Qualitative:       qual.Value,
		Stability:         stability.Value,
		Rationale:         e.rationale(in, quant, qual, stability, blended, held, daysHeld),
		Catalysts:         catalysts(in.News),
		Risks:             risks(in.Fundamentals, in.News),
		ReducedConfidence: reduced,
		GeneratedAt:       now,
	}

	logger.Thesis(ctx, in.Ticker, string(rec), blended,
		"quantitative", quant.Value,
		"qualitative", qual.Value,
		"stability", stability.Value,
		"days_held", daysHeld,
		"reduced_confidence", reduced,
	)
	return thesis, nil
}

func (e *Engine) rationale(in EvalInput, quant, qual, stability scoring.SubScore, blended float64, held bool, daysHeld int) string {
	lines := []string{
		fmt.Sprintf("Long-term investment analysis for %s:", in.Ticker),
	}
	if held {
		lines = append(lines, fmt.Sprintf("Currently held: %.0f shares at avg %.2f %s.",
			in.Position.Quantity, in.Position.AveragePrice, in.Position.Currency))
	} else {
		lines = append(lines, "Not currently held.")
	}
	lines = append(lines,
		fmt.Sprintf("Quantitative score: %.2f x %.2f (dividend yield, payout, profitability)%s",
			quant.Value, e.policy.WeightQuantitative, defaultedNote(quant)),
		fmt.Sprintf("Qualitative score: %.2f x %.2f (news sentiment, %d articles)%s",
			qual.Value, e.policy.WeightQualitative, len(in.News), defaultedNote(qual)),
		fmt.Sprintf("Stability score: %.2f x %.2f (debt levels, beta)%s",
			stability.Value, e.policy.WeightStability, defaultedNote(stability)),
		fmt.Sprintf("Blended conviction: %.2f", blended),
	)
	if held {
		lines = append(lines, fmt.Sprintf("Holding period: %d days (minimum: %d days)",
			daysHeld, e.policy.MinHoldingDays))
	} else if blended >= e.policy.WatchThreshold && blended < e.policy.BuyThreshold {
		lines = append(lines, "Watchlist candidate: conviction clears the watch threshold but not the buy bar.")
	}
	return strings.Join(lines, "\n")
}

func defaultedNote(s scoring.SubScore) string {
	if s.Defaulted {
		return " [no data, defaulted to neutral]"
	}
	return ""
}

const maxListedHeadlines = 3

func catalysts(news []types.NewsItem) []string {
	var out []string
	for _, item := range news {
		if item.Sentiment == types.SentimentPositive {
			out = append(out, item.Title)
			if len(out) == maxListedHeadlines {
				break
			}
		}
	}
	return out
}

func risks(f types.FundamentalsSnapshot, news []types.NewsItem) []string {
	var out []string
	if f.DebtToEquity != nil && *f.DebtToEquity > 1.5 {
		out = append(out, fmt.Sprintf("elevated debt-to-equity (%.2f)", *f.DebtToEquity))
	}
	if f.Beta != nil && *f.Beta > 1.3 {
		out = append(out, fmt.Sprintf("high beta (%.2f)", *f.Beta))
	}
	n := 0
	for _, item := range news {
		if item.Sentiment == types.SentimentNegative {
			out = append(out, item.Title)
			n++
			if n == maxListedHeadlines {
				break
			}
		}
	}
	return out
}
