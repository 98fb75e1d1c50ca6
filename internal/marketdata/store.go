package marketdata

import (
	"context"
	"fmt"
	"time"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// StoreAccessor serves bars from a PriceBarStore.
type StoreAccessor struct {
	store storage.PriceBarStore
}

// NewStoreAccessor creates an accessor backed by store.
func NewStoreAccessor(store storage.PriceBarStore) *StoreAccessor {
	return &StoreAccessor{store: store}
}

var _ Accessor = (*StoreAccessor)(nil)

// Fetch returns stored bars for symbol in [start, end].
func (a *StoreAccessor) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	bars, err := a.store.GetByRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	return bars, nil
}
