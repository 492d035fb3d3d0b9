// Package decision turns sub-scores into position-aware recommendations.
package decision

import (
	"ai-investor/internal/store"
	"ai-investor/internal/types"
)

// HoldingState classifies a ticker for threshold selection. It is
// recomputed from current inputs on every evaluation, never persisted.
type HoldingState int

const (
	// StateNew: the ticker is not currently held.
	StateNew HoldingState = iota
	// StateWithinMinHold: held, inside the minimum holding period.
	StateWithinMinHold
	// StatePastMinHold: held, past the minimum holding period.
	StatePastMinHold
)

// PolicyConfig carries the blend weights and decision thresholds. All
// comparisons are >=, so a score exactly on a boundary lands in the more
// conservative bucket.
type PolicyConfig struct {
	WeightQuantitative float64
	WeightQualitative  float64
	WeightStability    float64

	BuyThreshold          float64 // NEW: blended >= this is a buy
	WatchThreshold        float64 // NEW: blended >= this is a hold (watch)
	HoldThreshold         float64 // held, past window: >= this holds
	TrimThreshold         float64 // held, past window: >= this trims
	CatastrophicThreshold float64 // held, inside window: < this permits exit

	MinHoldingDays int
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		WeightQuantitative:    0.50,
		WeightQualitative:     0.35,
		WeightStability:       0.15,
		BuyThreshold:          0.75,
		WatchThreshold:        0.60,
		HoldThreshold:         0.45,
		TrimThreshold:         0.35,
		CatastrophicThreshold: 0.35,
		MinHoldingDays:        90,
	}
}

// PolicyFromConfig lifts the YAML decision section into a PolicyConfig.
func PolicyFromConfig(cfg *store.Config) PolicyConfig {
	return PolicyConfig{
		WeightQuantitative:    cfg.Decision.Weights.Quantitative,
		WeightQualitative:     cfg.Decision.Weights.Qualitative,
		WeightStability:       cfg.Decision.Weights.Stability,
		BuyThreshold:          cfg.Decision.Thresholds.Buy,
		WatchThreshold:        cfg.Decision.Thresholds.Watch,
		HoldThreshold:         cfg.Decision.Thresholds.Hold,
		TrimThreshold:         cfg.Decision.Thresholds.Trim,
		CatastrophicThreshold: cfg.Decision.Thresholds.Catastrophic,
		MinHoldingDays:        cfg.Decision.MinHoldingDays,
	}
}

// Blend combines the three sub-scores into the conviction score.
func (p PolicyConfig) Blend(quant, qual, stability float64) float64 {
	return p.WeightQuantitative*quant +
		p.WeightQualitative*qual +
		p.WeightStability*stability
}

// Recommend applies the state-dependent thresholds.
//
// New positions need a high bar to avoid trend-chasing; positions inside
// the minimum holding period are protected from ordinary exits but not
// from a catastrophic score; unheld tickers can never be exited.
func (p PolicyConfig) Recommend(state HoldingState, blended float64) types.Recommendation {
	switch state {
	case StateNew:
		if blended >= p.BuyThreshold {
			return types.RecommendBuy
		}
		// Below the buy bar there is nothing to do for an unheld
		// ticker; at or above the watch bar it is worth tracking.
		return types.RecommendHold
	case StateWithinMinHold:
		if blended < p.CatastrophicThreshold {
			return types.RecommendExit
		}
		return types.RecommendHold
	default: // StatePastMinHold
		if blended >= p.HoldThreshold {
			return types.RecommendHold
		}
		if blended >= p.TrimThreshold {
			return types.RecommendTrim
		}
		return types.RecommendExit
	}
}
