package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"threshold-lab/internal/app"
	"threshold-lab/internal/storage/migrations"
	pgstore "threshold-lab/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded PostgreSQL and ClickHouse migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cfg.Storage.Backend != app.BackendSQL {
		return fmt.Errorf("migrate needs storage.backend %q, got %q", app.BackendSQL, cfg.Storage.Backend)
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN, cfg.Storage.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}
	logger.Info("postgres migrations applied")

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("clickhouse migrations applied")

	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
