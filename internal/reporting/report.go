package reporting

import (
	"sort"
	"time"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/metrics"
)

// Output file names.
const (
	ReportFile         = "REPORT.md"
	LedgerFile         = "trade_ledger.csv"
	EquityFile         = "equity_curve.csv"
	ThresholdStatsFile = "threshold_stats.csv"
)

// Report represents one study run ready for rendering.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         *domain.RunSummary

	// Threshold crossings (sorted by level ASC)
	Thresholds []ThresholdRow

	// Equity curve (sorted by date ASC)
	Equity []domain.EquityPoint

	// Ledger (purchase order) and its distribution
	Ledger      []domain.TradeLedgerRow
	LedgerStats domain.LedgerStats
}

// ThresholdRow represents one row in threshold table.
type ThresholdRow struct {
	Level      float64
	IsTarget   bool
	IsStoploss bool
	Count      int
	HitRatePct float64 // Count / scanned entries * 100
	Days       []int
	MeanDays   float64
	MedianDays float64
	MinDays    int
	MaxDays    int
}

// Build assembles a report from run artifacts.
func Build(generatedAt time.Time, run *domain.RunSummary, stats domain.ThresholdStats, equity []domain.EquityPoint, ledger []domain.TradeLedgerRow) *Report {
	return &Report{
		GeneratedAt: generatedAt,
		Run:         run,
		Thresholds:  thresholdRows(run, stats),
		Equity:      equity,
		Ledger:      ledger,
		LedgerStats: metrics.ComputeLedgerStats(ledger),
	}
}

func thresholdRows(run *domain.RunSummary, stats domain.ThresholdStats) []ThresholdRow {
	rows := make([]ThresholdRow, 0, len(stats))
	for level, st := range stats {
		summary := metrics.SummarizeDays(st.Days)
		row := ThresholdRow{
			Level:      float64(level),
			IsTarget:   float64(level) == run.TargetPct,
			IsStoploss: float64(level) == run.StoplossPct,
			Count:      st.Count,
			Days:       st.Days,
			MeanDays:   summary.Mean,
			MedianDays: summary.Median,
			MinDays:    summary.Min,
			MaxDays:    summary.Max,
		}
		if run.ScannedEntries > 0 {
			row.HitRatePct = float64(st.Count) / float64(run.ScannedEntries) * 100
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Level < rows[j].Level
	})
	return rows
}
