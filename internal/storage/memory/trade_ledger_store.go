package memory

import (
	"context"
	"sort"
	"sync"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// TradeLedgerStore is an in-memory implementation of storage.TradeLedgerStore.
type TradeLedgerStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.TradeLedgerRow // run_id -> trade_id -> row
}

// NewTradeLedgerStore creates a new in-memory trade ledger store.
func NewTradeLedgerStore() *TradeLedgerStore {
	return &TradeLedgerStore{
		data: make(map[string]map[string]*domain.TradeLedgerRow),
	}
}

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *TradeLedgerStore) InsertBulk(_ context.Context, rows []*domain.TradeLedgerRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ runID, tradeID string }
	batchKeys := make(map[key]struct{}, len(rows))

	// First pass: validate and check for duplicates
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.RunID][r.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		k := key{r.RunID, r.TradeID}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range rows {
		run, ok := s.data[r.RunID]
		if !ok {
			run = make(map[string]*domain.TradeLedgerRow)
			s.data[r.RunID] = run
		}
		copy := *r
		run[r.TradeID] = &copy
	}

	return nil
}

// GetByRunID retrieves all rows of a run, ordered by purchase_date ASC, symbol ASC.
func (s *TradeLedgerStore) GetByRunID(_ context.Context, runID string) ([]*domain.TradeLedgerRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeLedgerRow
	for _, r := range s.data[runID] {
		copy := *r
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PurchaseDate.Equal(result[j].PurchaseDate) {
			return result[i].PurchaseDate.Before(result[j].PurchaseDate)
		}
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

var _ storage.TradeLedgerStore = (*TradeLedgerStore)(nil)
