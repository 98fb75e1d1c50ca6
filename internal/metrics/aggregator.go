package metrics

import (
	"context"
	"errors"
	"fmt"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// ErrNoTrades is returned when a run has no ledger rows to aggregate.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator recomputes run statistics from persisted artifacts.
type Aggregator struct {
	ledgerStore storage.TradeLedgerStore
	equityStore storage.EquityCurveStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(ledgerStore storage.TradeLedgerStore, equityStore storage.EquityCurveStore) *Aggregator {
	return &Aggregator{
		ledgerStore: ledgerStore,
		equityStore: equityStore,
	}
}

// LedgerStats loads the ledger of runID and summarizes it.
// Returns ErrNoTrades if the run has no rows.
func (a *Aggregator) LedgerStats(ctx context.Context, runID string) (domain.LedgerStats, error) {
	rows, err := a.ledgerStore.GetByRunID(ctx, runID)
	if err != nil {
		return domain.LedgerStats{}, fmt.Errorf("load ledger %s: %w", runID, err)
	}
	if len(rows) == 0 {
		return domain.LedgerStats{}, ErrNoTrades
	}

	values := make([]domain.TradeLedgerRow, len(rows))
	for i, r := range rows {
		values[i] = *r
	}
	return ComputeLedgerStats(values), nil
}

// Drawdown loads the equity curve of runID and returns its maximum drawdown.
// A run without equity points has a zero drawdown.
func (a *Aggregator) Drawdown(ctx context.Context, runID string) (Drawdown, error) {
	points, err := a.equityStore.GetByRunID(ctx, runID)
	if err != nil {
		return Drawdown{}, fmt.Errorf("load equity %s: %w", runID, err)
	}
	return MaxDrawdown(points), nil
}
