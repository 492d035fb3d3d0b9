package thesislog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-investor/internal/types"
)

func entry(ticker string, rec types.Recommendation, ts time.Time) Entry {
	return Entry{
		InvestmentThesis: types.InvestmentThesis{
			Ticker:         ticker,
			Recommendation: rec,
			Conviction:     0.7,
			Rationale:      "test",
			GeneratedAt:    ts,
		},
		Position: types.PositionState{Held: rec != types.RecommendBuy},
	}
}

func TestFileStoreAppendScan(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "nested", "thesis_log.jsonl"))

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.Append(entry("AAPL", types.RecommendBuy, now)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(entry("MSFT", types.RecommendHold, now.Add(time.Hour))); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := store.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Ticker != "AAPL" || entries[1].Ticker != "MSFT" {
		t.Errorf("entries out of append order: %s, %s", entries[0].Ticker, entries[1].Ticker)
	}
	if !entries[0].GeneratedAt.Equal(now) {
		t.Errorf("timestamp not preserved: %v vs %v", entries[0].GeneratedAt, now)
	}
}

func TestFileStoreScanMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.jsonl"))
	entries, err := store.Scan()
	if err != nil {
		t.Fatalf("scan of missing file should not error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	store := NewFileStore(path)
	if err := store.Append(entry("AAPL", types.RecommendBuy, time.Now())); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := store.Append(entry("MSFT", types.RecommendHold, time.Now())); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("corrupt line should be skipped, expected 2 entries got %d", len(entries))
	}
}

func TestDaysHeldFirstBuyWins(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()

	// Buy, exit, re-buy: the original buy stays authoritative.
	mustAppend(t, store, entry("NVO", types.RecommendBuy, now.AddDate(0, 0, -200)))
	mustAppend(t, store, entry("NVO", types.RecommendExit, now.AddDate(0, 0, -100)))
	mustAppend(t, store, entry("NVO", types.RecommendBuy, now.AddDate(0, 0, -10)))

	days, ok, err := DaysHeld(store, "NVO", now)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a holding period for NVO")
	}
	if days != 200 {
		t.Errorf("expected 200 days from first-ever buy, got %d", days)
	}
}

func TestDaysHeldNoBuy(t *testing.T) {
	store := NewMemoryStore()
	mustAppend(t, store, entry("NVO", types.RecommendHold, time.Now()))

	_, ok, err := DaysHeld(store, "NVO", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("HOLD-only history must not produce a holding period")
	}

	_, ok, err = DaysHeld(store, "UNKNOWN", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown ticker must not produce a holding period")
	}
}

func mustAppend(t *testing.T, s Store, e Entry) {
	t.Helper()
	if err := s.Append(e); err != nil {
		t.Fatal(err)
	}
}
