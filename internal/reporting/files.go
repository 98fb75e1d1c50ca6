package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles renders r into dir as REPORT.md, trade_ledger.csv,
// equity_curve.csv and threshold_stats.csv.
func WriteFiles(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ledgerCSV, err := RenderLedgerCSV(r.Ledger)
	if err != nil {
		return err
	}
	equityCSV, err := RenderEquityCSV(r.Equity)
	if err != nil {
		return err
	}
	thresholdCSV, err := RenderThresholdCSV(r.Thresholds)
	if err != nil {
		return err
	}

	files := map[string]string{
		ReportFile:         RenderMarkdown(r),
		LedgerFile:         ledgerCSV,
		EquityFile:         equityCSV,
		ThresholdStatsFile: thresholdCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
