package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PriceBar // keyed by (symbol, date)
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]*domain.PriceBar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, date time.Time) string {
	return fmt.Sprintf("%s|%s", symbol, date.Format("2006-01-02"))
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *PriceBarStore) InsertBulk(_ context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.Date)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		barCopy := *b
		s.data[barKey(b.Symbol, b.Date)] = &barCopy
	}

	return nil
}

// GetByRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *PriceBarStore) GetByRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceBar
	for _, b := range s.data {
		if b.Symbol == symbol && !b.Date.Before(start) && !b.Date.After(end) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// GetSymbols retrieves all distinct symbols, sorted ASC.
func (s *PriceBarStore) GetSymbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, b := range s.data {
		seen[b.Symbol] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return symbols, nil
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
