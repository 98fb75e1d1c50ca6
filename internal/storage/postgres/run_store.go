package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, created_at,
	trade_size, initial_capital, max_trades_per_day, target_pct, stoploss_pct, timeout_days, price_field,
	input_entries, unique_entries, scanned_entries, dropped_entries,
	accepted_trades, skipped_trades, ledger_rows,
	target_exits, stoploss_exits, timed_exits, unresolved_exits,
	final_capital, win_rate_pct, expected_payoff, max_drawdown, max_drawdown_pct, cagr_pct
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (
		$1, $2,
		$3, $4, $5, $6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16,
		$17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26
	)`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.CreatedAt,
		r.TradeSize, r.InitialCapital, r.MaxTradesPerDay, r.TargetPct, r.StoplossPct, r.TimeoutDays, string(r.PriceField),
		r.InputEntries, r.UniqueEntries, r.ScannedEntries, r.DroppedEntries,
		r.AcceptedTrades, r.SkippedTrades, r.LedgerRows,
		r.TargetExits, r.StoplossExits, r.TimedExits, r.UnresolvedExits,
		r.FinalCapital, r.WinRatePct, r.ExpectedPayoff, r.MaxDrawdown, r.MaxDrawdownPct, r.CAGRPct,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Delete removes a run with its ledger rows and threshold stats in one
// transaction. Returns ErrNotFound if not exists.
func (s *RunStore) Delete(ctx context.Context, runID string) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		for _, table := range []string{"trade_ledger", "threshold_stats"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE run_id = $1`, runID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM runs WHERE run_id = $1`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// List retrieves the most recent runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, run_id ASC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row into a RunSummary.
func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var r domain.RunSummary
	var priceField string

	err := row.Scan(
		&r.RunID, &r.CreatedAt,
		&r.TradeSize, &r.InitialCapital, &r.MaxTradesPerDay, &r.TargetPct, &r.StoplossPct, &r.TimeoutDays, &priceField,
		&r.InputEntries, &r.UniqueEntries, &r.ScannedEntries, &r.DroppedEntries,
		&r.AcceptedTrades, &r.SkippedTrades, &r.LedgerRows,
		&r.TargetExits, &r.StoplossExits, &r.TimedExits, &r.UnresolvedExits,
		&r.FinalCapital, &r.WinRatePct, &r.ExpectedPayoff, &r.MaxDrawdown, &r.MaxDrawdownPct, &r.CAGRPct,
	)
	if err != nil {
		return nil, err
	}

	r.PriceField = domain.PriceField(priceField)
	return &r, nil
}
