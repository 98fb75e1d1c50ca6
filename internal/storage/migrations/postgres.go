package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"threshold-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies every embedded Postgres file, each in its own
// transaction so a failing file leaves no partial schema behind.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		err := pool.InTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, f.sql)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
