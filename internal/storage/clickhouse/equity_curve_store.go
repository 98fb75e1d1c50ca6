package clickhouse

import (
	"context"
	"fmt"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds the curve of a run. Fails on duplicate (run_id, date).
func (s *EquityCurveStore) InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, exists := seen[p.Date.Unix()]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.Date.Unix()] = struct{}{}
	}

	// Curves are written once per run
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM equity_curve WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO equity_curve (run_id, date, capital)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, p.Date, p.Capital); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves the curve of a run, ordered by date ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT date, capital FROM equity_curve
		WHERE run_id = ?
		ORDER BY date ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanEquityPoints(rows)
}

// scanEquityPoints scans multiple rows.
func scanEquityPoints(rows chRows) ([]domain.EquityPoint, error) {
	var points []domain.EquityPoint

	for rows.Next() {
		var p domain.EquityPoint
		if err := rows.Scan(&p.Date, &p.Capital); err != nil {
			return nil, fmt.Errorf("scan equity row: %w", err)
		}
		p.Date = p.Date.UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity rows: %w", err)
	}

	return points, nil
}
