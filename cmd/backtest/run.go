package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/entries"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/pipeline"
)

var (
	runEntriesPath string
	runBarsPaths   []string
	runFixtures    bool
	runOutputDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a study over an entries file",
	Long: `Run scans every entry, resolves its exit, simulates the book and builds
the trade ledger. Artifacts are persisted to the configured storage and
rendered to --out.

Examples:
  threshold-lab run --entries entries.csv --out output
  threshold-lab run --entries entries.csv --bars bars/AAPL.csv --bars bars/MSFT.csv
  threshold-lab run --fixtures`,
	RunE: runStudy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runEntriesPath, "entries", "", "CSV file with symbol,date columns")
	runCmd.Flags().StringArrayVar(&runBarsPaths, "bars", nil, "CSV bar files loaded into the bar store before the run (repeatable)")
	runCmd.Flags().BoolVar(&runFixtures, "fixtures", false, "Use built-in fixture bars and entries")
	runCmd.Flags().StringVar(&runOutputDir, "out", "output", "Directory for REPORT.md and CSV files")
}

func runStudy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if runEntriesPath == "" && !runFixtures {
		return fmt.Errorf("--entries or --fixtures is required")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, path := range runBarsPaths {
		bars, err := marketdata.LoadBarsCSVFile(path, "")
		if err != nil {
			return err
		}
		if err := a.Stores.Bars.InsertBulk(ctx, bars); err != nil {
			return fmt.Errorf("load bars %s: %w", path, err)
		}
		logger.Info("bars loaded", zap.String("file", path), zap.Int("bars", len(bars)))
	}

	var input []domain.Entry
	if runFixtures {
		input, err = pipeline.LoadFixtures(ctx, a.Stores.Bars)
	} else {
		input, err = entries.LoadFile(runEntriesPath)
	}
	if err != nil {
		return err
	}

	res, err := a.NewRunner(a.Study).Run(ctx, input)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(runOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	report := res.Report(res.Run.CreatedAt)
	if err := writeReport(runOutputDir, report); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), report)
	return nil
}
