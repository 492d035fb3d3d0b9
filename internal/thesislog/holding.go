package thesislog

import (
	"time"

	"ai-investor/internal/types"
)

// DaysHeld returns days since the earliest BUY entry for ticker, or
// ok=false when no BUY was ever logged (the ticker is a new candidate).
//
// The first-ever buy is authoritative even if the position was later
// trimmed, exited and re-bought; the clock does not reset on re-entry.
func DaysHeld(s Store, ticker string, now time.Time) (int, bool, error) {
	entries, err := s.Scan()
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.Ticker != ticker || e.Recommendation != types.RecommendBuy {
			continue
		}
		days := int(now.Sub(e.GeneratedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return days, true, nil
	}
	return 0, false, nil
}
