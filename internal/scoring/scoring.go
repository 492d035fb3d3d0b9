// Package scoring maps raw fundamentals and news sentiment into bounded
// sub-scores. All functions are pure; missing inputs degrade the score
// toward neutral instead of failing.
package scoring

import (
	"math"

	"ai-investor/internal/types"
)

// SubScore is one bounded dimension of an evaluation. Defaulted is set when
// every input behind the dimension was missing and the value fell back to
// neutral, so downstream reporting can note reduced confidence.
type SubScore struct {
	Value     float64
	Defaulted bool
}

// Neutral is the fallback value when a dimension has no data at all.
const Neutral = 0.5

// QuantWeights control the contribution of each fundamental component to
// the quantitative score. Components whose input is missing are dropped and
// the remaining weights re-normalized.
type QuantWeights struct {
	DividendYield float64
	PayoutRatio   float64
	NetMargin     float64
	ROA           float64
	ROE           float64
}

// DefaultQuantWeights mirror the conservative dividend-income strategy:
// yield dominates, profitability metrics share the rest.
func DefaultQuantWeights() QuantWeights {
	return QuantWeights{
		DividendYield: 0.30,
		PayoutRatio:   0.20,
		NetMargin:     0.20,
		ROA:           0.15,
		ROE:           0.15,
	}
}

// Normalization caps. A metric at or above its cap contributes a full 1.0.
const (
	yieldCap  = 6.0  // dividend yield %, 6%+ is a full score
	payoutMid = 50.0 // ideal payout ratio %, distance is penalized
	marginCap = 30.0 // net margin %
	roaCap    = 15.0
	roeCap    = 20.0
)

// Quantitative scores dividend yield, payout discipline and profitability.
func Quantitative(f types.FundamentalsSnapshot, w QuantWeights) SubScore {
	var acc weightedAvg
	if f.DividendYield != nil {
		acc.add(clamp01(*f.DividendYield/yieldCap), w.DividendYield)
	}
	if f.PayoutRatio != nil {
		acc.add(1-clamp01(math.Abs(*f.PayoutRatio-payoutMid)/payoutMid), w.PayoutRatio)
	}
	if f.NetMargin != nil {
		acc.add(clamp01(math.Max(*f.NetMargin, 0)/marginCap), w.NetMargin)
	}
	if f.ROA != nil {
		acc.add(clamp01(math.Max(*f.ROA, 0)/roaCap), w.ROA)
	}
	if f.ROE != nil {
		acc.add(clamp01(math.Max(*f.ROE, 0)/roeCap), w.ROE)
	}
	return acc.score()
}

// Qualitative aggregates news sentiment: each positive item maps to 0.75,
// neutral to 0.5, negative to 0.25, averaged. An empty sequence is neutral,
// not an error.
func Qualitative(news []types.NewsItem) SubScore {
	if len(news) == 0 {
		return SubScore{Value: Neutral, Defaulted: true}
	}
	sum := 0.0
	for _, item := range news {
		switch item.Sentiment {
		case types.SentimentPositive:
			sum += 0.75
		case types.SentimentNegative:
			sum += 0.25
		default:
			sum += 0.5
		}
	}
	return SubScore{Value: clamp01(sum / float64(len(news)))}
}

// Stability rewards low leverage and low beta. A debt-to-equity of 2 or
// more zeroes the debt component; beta scores peak at 0.8 and fade to zero
// 1.2 away from it.
func Stability(f types.FundamentalsSnapshot) SubScore {
	var acc weightedAvg
	if f.DebtToEquity != nil {
		acc.add(1-clamp01(*f.DebtToEquity/2.0), 0.5)
	}
	if f.Beta != nil {
		acc.add(1-clamp01(math.Abs(*f.Beta-0.8)/1.2), 0.5)
	}
	return acc.score()
}

type weightedAvg struct {
	sum    float64
	weight float64
}

func (a *weightedAvg) add(value, weight float64) {
	a.sum += value * weight
	a.weight += weight
}

func (a *weightedAvg) score() SubScore {
	if a.weight == 0 {
		return SubScore{Value: Neutral, Defaulted: true}
	}
	return SubScore{Value: clamp01(a.sum / a.weight)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
