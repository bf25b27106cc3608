package runlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finbrief/daily-brief/internal/pipeline"
)

// ErrNoRuns is returned when the ledger holds no entries.
var ErrNoRuns = errors.New("no runs recorded")

// Entry records the outcome of one pipeline run.
type Entry struct {
	RunID        string             `json:"run_id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	FinalState   pipeline.State     `json:"final_state"`
	Success      bool               `json:"success"`
	Delivered    bool               `json:"delivered"`
	Filename     string             `json:"filename,omitempty"`
	Languages    []string           `json:"languages,omitempty"`
	SectionCount int                `json:"section_count"`
	Failures     []pipeline.Failure `json:"failures,omitempty"`
}

// Stats summarizes the retained run history.
type Stats struct {
	TotalRuns     int       `json:"total_runs"`
	Successful    int       `json:"successful"`
	Failed        int       `json:"failed"`
	Delivered     int       `json:"delivered"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastSuccessAt time.Time `json:"last_success_at"`
}

// Store is the run ledger interface.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Latest(ctx context.Context) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
	RanSince(ctx context.Context, since time.Time) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
}

// MemoryStore implements an in-memory run ledger with bounded retention.
type MemoryStore struct {
	entries   []Entry
	mutex     sync.RWMutex
	retention time.Duration
}

// NewMemoryStore creates a new in-memory store. Entries older than the
// retention window are dropped by a background sweep.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	store := &MemoryStore{
		retention: retention,
	}

	// Start cleanup goroutine
	go store.cleanup()

	return store
}

// Record appends a run entry to the ledger.
func (s *MemoryStore) Record(ctx context.Context, entry Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// Latest returns the most recently recorded entry.
func (s *MemoryStore) Latest(ctx context.Context) (*Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.entries) == 0 {
		return nil, ErrNoRuns
	}

	entry := s.entries[len(s.entries)-1]
	return &entry, nil
}

// List returns all retained entries, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries, nil
}

// RanSince reports whether any successful run started at or after the
// given time. Used for the once-per-day guard.
func (s *MemoryStore) RanSince(ctx context.Context, since time.Time) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.StartedAt.Before(since) {
			break
		}
		if entry.Success {
			return true, nil
		}
	}

	return false, nil
}

// Stats returns aggregate statistics over the retained history.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := &Stats{TotalRuns: len(s.entries)}

	for _, entry := range s.entries {
		if entry.Success {
			stats.Successful++
			if entry.StartedAt.After(stats.LastSuccessAt) {
				stats.LastSuccessAt = entry.StartedAt
			}
		} else {
			stats.Failed++
		}
		if entry.Delivered {
			stats.Delivered++
		}
		if entry.StartedAt.After(stats.LastRunAt) {
			stats.LastRunAt = entry.StartedAt
		}
	}

	return stats, nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = nil
	return nil
}

// cleanup drops entries past the retention window periodically.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.dropExpired(time.Now())
	}
}

// dropExpired removes entries older than the retention window.
func (s *MemoryStore) dropExpired(now time.Time) {
	if s.retention <= 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.retention)
	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.StartedAt.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
}

// FromResult converts a pipeline result into a ledger entry.
func FromResult(result *pipeline.RunResult) Entry {
	entry := Entry{
		RunID:      result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		FinalState: result.FinalState,
		Success:    result.Success,
		Delivered:  result.Delivered,
		Filename:   result.Filename,
		Failures:   result.Failures,
	}

	if result.Artifact != nil {
		entry.SectionCount = len(result.Artifact.Sections)
		for _, section := range result.Artifact.Sections {
			entry.Languages = append(entry.Languages, section.Summary.LanguageCode)
		}
	}

	return entry
}
