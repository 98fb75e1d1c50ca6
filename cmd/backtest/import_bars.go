package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"threshold-lab/internal/marketdata"
)

var importSymbol string

var importBarsCmd = &cobra.Command{
	Use:   "import-bars FILE...",
	Short: "Import daily bars from CSV files into the bar store",
	Long: `Import-bars reads date,open,high,low,close,volume rows (plus an optional
symbol column) and inserts them into the configured bar store. Files without a
symbol column need --symbol.

Example:
  threshold-lab import-bars --symbol AAPL data/AAPL.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImportBars,
}

func init() {
	rootCmd.AddCommand(importBarsCmd)

	importBarsCmd.Flags().StringVar(&importSymbol, "symbol", "", "Symbol for files without a symbol column")
}

func runImportBars(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	total := 0
	for _, path := range args {
		bars, err := marketdata.LoadBarsCSVFile(path, importSymbol)
		if err != nil {
			return err
		}
		if err := a.Stores.Bars.InsertBulk(ctx, bars); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		total += len(bars)
		logger.Info("bars imported", zap.String("file", path), zap.Int("bars", len(bars)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d bars from %d file(s)\n", total, len(args))
	return nil
}
