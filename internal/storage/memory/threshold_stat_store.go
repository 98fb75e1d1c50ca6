package memory

import (
	"context"
	"sync"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// ThresholdStatStore is an in-memory implementation of storage.ThresholdStatStore.
type ThresholdStatStore struct {
	mu   sync.RWMutex
	data map[string]domain.ThresholdStats // keyed by run_id
}

// NewThresholdStatStore creates a new in-memory threshold stat store.
func NewThresholdStatStore() *ThresholdStatStore {
	return &ThresholdStatStore{
		data: make(map[string]domain.ThresholdStats),
	}
}

// Insert adds the stats of a run.
func (s *ThresholdStatStore) Insert(_ context.Context, runID string, stats domain.ThresholdStats) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = cloneStats(stats)
	return nil
}

// GetByRunID retrieves the stats of a run.
func (s *ThresholdStatStore) GetByRunID(_ context.Context, runID string) (domain.ThresholdStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneStats(s.data[runID]), nil
}

func cloneStats(in domain.ThresholdStats) domain.ThresholdStats {
	out := make(domain.ThresholdStats, len(in))
	for level, st := range in {
		out[level] = domain.ThresholdStat{
			Count: st.Count,
			Days:  append([]int(nil), st.Days...),
		}
	}
	return out
}

var _ storage.ThresholdStatStore = (*ThresholdStatStore)(nil)
