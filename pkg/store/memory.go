package store

import (
	"sync"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// MemoryStore is an in-memory implementation of the run history store.
// Useful for library embedding and tests; nothing survives the process.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*models.RunRecord
	order []string // record IDs in insertion order
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*models.RunRecord),
	}
}

// CreateRun adds a run record
func (s *MemoryStore) CreateRun(rec *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.runs[rec.ID] = &cp
	s.order = append(s.order, rec.ID)
	return nil
}

// GetRun retrieves a run record by its record ID
func (s *MemoryStore) GetRun(id string) (*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *rec
	return &cp, nil
}

// GetRunByRunID retrieves the most recent record with the given run
// identifier. Second-granularity identifier collisions resolve to the
// newest record.
func (s *MemoryStore) GetRunByRunID(runID string) (*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if rec := s.runs[s.order[i]]; rec != nil && rec.RunID == runID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrRunNotFound
}

// ListRuns returns records newest-first, at most limit entries
// (all of them when limit <= 0)
func (s *MemoryStore) ListRuns(limit int) ([]*models.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.RunRecord
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if rec := s.runs[s.order[i]]; rec != nil {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FinishRun sets the terminal fields on the newest record matching the
// run identifier
func (s *MemoryStore) FinishRun(update *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.runs[s.order[i]]
		if rec == nil || rec.RunID != update.RunID {
			continue
		}
		rec.Status = update.Status
		rec.Mode = update.Mode
		rec.Result = update.Result
		rec.ReportPath = update.ReportPath
		rec.Error = update.Error
		rec.CompletedAt = update.CompletedAt
		return nil
	}
	return ErrRunNotFound
}

// DeleteRun removes a record by its record ID
func (s *MemoryStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// PruneBefore deletes records created before the cutoff and returns how
// many were removed
func (s *MemoryStore) PruneBefore(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	kept := s.order[:0]
	for _, id := range s.order {
		rec := s.runs[id]
		if rec != nil && rec.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			pruned++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return pruned, nil
}

// Vacuum is a no-op for the in-memory store
func (s *MemoryStore) Vacuum() error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
