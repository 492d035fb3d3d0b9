// Package thesislog persists the append-only audit trail of investment
// theses. The log is the sole source of truth for when a ticker was first
// bought; entries are immutable once written.
package thesislog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ai-investor/internal/types"
)

// Entry is one audit record: the thesis plus the position state at the
// time of the decision.
type Entry struct {
	types.InvestmentThesis
	Position types.PositionState `json:"position"`
}

// Store is the log abstraction injected wherever holding history is read.
// Appends are the only write; Scan returns entries in append order.
type Store interface {
	Append(e Entry) error
	Scan() ([]Entry, error)
}

// FileStore appends entries to a JSONL file, one object per line. Single
// writer per run; the mutex guards against capability handlers appending
// concurrently during a batch.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// EnsureWritable creates the log's directory and verifies the file can be
// opened for append. A failure here is fatal to the run.
func (s *FileStore) EnsureWritable() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("thesis log directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("thesis log not writable: %w", err)
	}
	return f.Close()
}

func (s *FileStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.GeneratedAt.IsZero() {
		e.GeneratedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Scan reads every entry in append order. Corrupt lines are skipped rather
// than aborting the scan; a truncated tail must not poison holding-period
// lookups for unrelated tickers.
func (s *FileStore) Scan() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.GeneratedAt.IsZero() {
		e.GeneratedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) Scan() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
