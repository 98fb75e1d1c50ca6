package storage

import (
	"context"
	"time"

	"threshold-lab/internal/domain"
)

// PriceBarStore provides access to price_bars storage.
type PriceBarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, date).
	InsertBulk(ctx context.Context, bars []*domain.PriceBar) error

	// GetByRange retrieves bars for a symbol within [start, end] (inclusive), ordered by date ASC.
	GetByRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error)

	// GetSymbols retrieves all distinct symbols, sorted ASC.
	GetSymbols(ctx context.Context) ([]string, error)
}

// RunStore provides access to runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunSummary) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// List retrieves the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*domain.RunSummary, error)

	// Delete removes a run together with the artifacts the backend keys to it.
	// Returns ErrNotFound if not exists.
	Delete(ctx context.Context, runID string) error
}

// TradeLedgerStore provides access to trade_ledger storage.
type TradeLedgerStore interface {
	// InsertBulk adds multiple rows atomically. Fails entire batch on duplicate (run_id, trade_id).
	InsertBulk(ctx context.Context, rows []*domain.TradeLedgerRow) error

	// GetByRunID retrieves all rows of a run, ordered by purchase_date ASC, symbol ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TradeLedgerRow, error)
}

// ThresholdStatStore provides access to threshold_stats storage.
type ThresholdStatStore interface {
	// Insert adds the stats of a run. Fails on duplicate (run_id, level).
	Insert(ctx context.Context, runID string, stats domain.ThresholdStats) error

	// GetByRunID retrieves the stats of a run. Returns an empty map if none.
	GetByRunID(ctx context.Context, runID string) (domain.ThresholdStats, error)
}

// EquityCurveStore provides access to equity_curve storage.
type EquityCurveStore interface {
	// InsertBulk adds the curve of a run. Fails on duplicate (run_id, date).
	InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error

	// GetByRunID retrieves the curve of a run, ordered by date ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error)
}
