package memory

import (
	"context"
	"sort"
	"sync"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by run_id
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityPoint),
	}
}

// InsertBulk adds the curve of a run. Fails on duplicate (run_id, date).
func (s *EquityCurveStore) InsertBulk(_ context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	seen := make(map[int64]struct{}, len(existing)+len(points))
	for _, p := range existing {
		seen[p.Date.Unix()] = struct{}{}
	}
	for _, p := range points {
		if _, exists := seen[p.Date.Unix()]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.Date.Unix()] = struct{}{}
	}

	merged := append(append([]domain.EquityPoint(nil), existing...), points...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	s.data[runID] = merged
	return nil
}

// GetByRunID retrieves the curve of a run, ordered by date ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.EquityPoint(nil), s.data[runID]...), nil
}

var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)
