package reporting

import (
	"context"
	"fmt"
	"time"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// Generator produces reports from stored run artifacts.
type Generator struct {
	runStore       storage.RunStore
	ledgerStore    storage.TradeLedgerStore
	thresholdStore storage.ThresholdStatStore
	equityStore    storage.EquityCurveStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	ledgerStore storage.TradeLedgerStore,
	thresholdStore storage.ThresholdStatStore,
	equityStore storage.EquityCurveStore,
) *Generator {
	return &Generator{
		runStore:       runStore,
		ledgerStore:    ledgerStore,
		thresholdStore: thresholdStore,
		equityStore:    equityStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate rebuilds the report of a persisted run.
// Returns storage.ErrNotFound if the run does not exist.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	stats, err := g.thresholdStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load threshold stats: %w", err)
	}

	equity, err := g.equityStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load equity curve: %w", err)
	}

	rowPtrs, err := g.ledgerStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	ledger := make([]domain.TradeLedgerRow, len(rowPtrs))
	for i, r := range rowPtrs {
		ledger[i] = *r
	}

	return Build(g.now(), run, stats, equity, ledger), nil
}
