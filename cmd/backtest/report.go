package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"threshold-lab/internal/reporting"
)

var (
	reportRunID     string
	reportOutputDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate the report of a persisted run",
	Long: `Report reads a run from storage and renders REPORT.md and the CSV files
again. It needs a persistent backend (storage.backend: sql).`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "Run to render (required)")
	reportCmd.Flags().StringVar(&reportOutputDir, "out", "output", "Directory for REPORT.md and CSV files")
	_ = reportCmd.MarkFlagRequired("run-id")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Generator().Generate(ctx, reportRunID)
	if err != nil {
		return fmt.Errorf("generate report for %s: %w", reportRunID, err)
	}

	if err := os.MkdirAll(reportOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeReport(reportOutputDir, report); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), report)
	return nil
}

func writeReport(dir string, report *reporting.Report) error {
	if err := reporting.WriteFiles(dir, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", zap.String("dir", dir))
	return nil
}
