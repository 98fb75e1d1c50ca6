package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// ThresholdStatStore implements storage.ThresholdStatStore using PostgreSQL.
type ThresholdStatStore struct {
	pool *Pool
}

// NewThresholdStatStore creates a new ThresholdStatStore.
func NewThresholdStatStore(pool *Pool) *ThresholdStatStore {
	return &ThresholdStatStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ThresholdStatStore = (*ThresholdStatStore)(nil)

// Insert adds the stats of a run in one transaction.
func (s *ThresholdStatStore) Insert(ctx context.Context, runID string, stats domain.ThresholdStats) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(stats) == 0 {
		return nil
	}

	// Stable insert order
	levels := make([]domain.Threshold, 0, len(stats))
	for level := range stats {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	query := `INSERT INTO threshold_stats (run_id, level, hit_count, days) VALUES ($1, $2, $3, $4)`

	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		for _, level := range levels {
			st := stats[level]
			days := make([]int32, len(st.Days))
			for i, d := range st.Days {
				days[i] = int32(d)
			}
			if _, err := tx.Exec(ctx, query, runID, float64(level), st.Count, days); err != nil {
				if isDuplicateKeyError(err) {
					return err
				}
				return fmt.Errorf("insert threshold stat %v: %w", level, err)
			}
		}
		return nil
	})
}

// GetByRunID retrieves the stats of a run. Returns an empty map if none.
func (s *ThresholdStatStore) GetByRunID(ctx context.Context, runID string) (domain.ThresholdStats, error) {
	query := `SELECT level, hit_count, days FROM threshold_stats WHERE run_id = $1 ORDER BY level ASC`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get threshold stats by run id: %w", err)
	}
	defer rows.Close()

	stats := make(domain.ThresholdStats)
	for rows.Next() {
		var level float64
		var count int
		var days []int32

		if err := rows.Scan(&level, &count, &days); err != nil {
			return nil, fmt.Errorf("scan threshold stat row: %w", err)
		}

		st := domain.ThresholdStat{Count: count, Days: make([]int, len(days))}
		for i, d := range days {
			st.Days[i] = int(d)
		}
		stats[domain.Threshold(level)] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threshold stat rows: %w", err)
	}

	return stats, nil
}
