package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// TradeLedgerStore implements storage.TradeLedgerStore using PostgreSQL.
type TradeLedgerStore struct {
	pool *Pool
}

// NewTradeLedgerStore creates a new TradeLedgerStore.
func NewTradeLedgerStore(pool *Pool) *TradeLedgerStore {
	return &TradeLedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeLedgerStore = (*TradeLedgerStore)(nil)

// InsertBulk adds multiple rows atomically. Fails entire batch on any duplicate.
func (s *TradeLedgerStore) InsertBulk(ctx context.Context, rows []*domain.TradeLedgerRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO trade_ledger (
			run_id, trade_id, symbol,
			purchase_date, purchase_price, sell_date, sell_price,
			profit_pct, pnl, exit_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, r := range rows {
		if r == nil || r.RunID == "" || r.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		for _, r := range rows {
			_, err := tx.Exec(ctx, query,
				r.RunID, r.TradeID, r.Symbol,
				r.PurchaseDate, r.PurchasePrice, r.SellDate, r.SellPrice,
				r.ProfitPct, r.PnL, string(r.ExitReason),
			)
			if err != nil {
				if isDuplicateKeyError(err) {
					return err
				}
				return fmt.Errorf("insert ledger row %s: %w", r.TradeID, err)
			}
		}
		return nil
	})
}

// GetByRunID retrieves all rows of a run, ordered by purchase_date ASC, symbol ASC.
func (s *TradeLedgerStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TradeLedgerRow, error) {
	query := `
		SELECT
			run_id, trade_id, symbol,
			purchase_date, purchase_price, sell_date, sell_price,
			profit_pct, pnl, exit_reason
		FROM trade_ledger
		WHERE run_id = $1
		ORDER BY purchase_date ASC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get ledger rows by run id: %w", err)
	}
	defer rows.Close()

	return scanLedgerRows(rows)
}

// scanLedgerRows scans multiple rows into a slice of TradeLedgerRow.
func scanLedgerRows(rows pgx.Rows) ([]*domain.TradeLedgerRow, error) {
	var result []*domain.TradeLedgerRow

	for rows.Next() {
		var r domain.TradeLedgerRow
		var reason string

		err := rows.Scan(
			&r.RunID, &r.TradeID, &r.Symbol,
			&r.PurchaseDate, &r.PurchasePrice, &r.SellDate, &r.SellPrice,
			&r.ProfitPct, &r.PnL, &reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}

		r.ExitReason = domain.ExitReason(reason)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}

	return result, nil
}
