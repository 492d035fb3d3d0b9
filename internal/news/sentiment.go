package news

import (
	"strings"

	"ai-investor/internal/types"
)

// Keyword lexicon for labeling scraped headlines. Deliberately small and
// biased toward dividend-investor vocabulary; anything ambiguous stays
// neutral.
var (
	positiveTerms = []string{
		"beat", "beats", "raise", "raises", "raised", "record", "growth",
		"upgrade", "upgraded", "surge", "surges", "dividend increase",
		"buyback", "outperform", "profit rises", "strong",
	}
	negativeTerms = []string{
		"miss", "misses", "cut", "cuts", "lawsuit", "probe", "downgrade",
		"downgraded", "plunge", "plunges", "recall", "layoff", "layoffs",
		"dividend suspended", "warning", "weak", "fraud", "bankruptcy",
	}
)

// LabelSentiment classifies a headline by counting lexicon hits. Ties and
// zero hits are neutral.
func LabelSentiment(text string) string {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, term := range positiveTerms {
		if strings.Contains(lower, term) {
			pos++
		}
	}
	for _, term := range negativeTerms {
		if strings.Contains(lower, term) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return types.SentimentPositive
	case neg > pos:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}
