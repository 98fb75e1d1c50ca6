package reporting

import (
	"fmt"
	"strings"
	"time"

	"threshold-lab/internal/calendar"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	run := r.Run

	// Header
	sb.WriteString("# Threshold Study Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", run.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trade Size | %s |\n", run.TradeSize.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", run.InitialCapital.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Max Trades / Day | %d |\n", run.MaxTradesPerDay))
	sb.WriteString(fmt.Sprintf("| Target | %+.2f%% |\n", run.TargetPct))
	sb.WriteString(fmt.Sprintf("| Stoploss | %+.2f%% |\n", run.StoplossPct))
	sb.WriteString(fmt.Sprintf("| Timeout | %d days |\n", run.TimeoutDays))
	sb.WriteString(fmt.Sprintf("| Price Field | %s |\n", run.PriceField))
	sb.WriteString("\n")

	// Entries
	sb.WriteString("## Entries\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Input Rows | %d |\n", run.InputEntries))
	sb.WriteString(fmt.Sprintf("| Unique Symbols | %d |\n", run.UniqueEntries))
	sb.WriteString(fmt.Sprintf("| Scanned | %d |\n", run.ScannedEntries))
	sb.WriteString(fmt.Sprintf("| Dropped (no data) | %d |\n", run.DroppedEntries))
	sb.WriteString(fmt.Sprintf("| Target Exits | %d |\n", run.TargetExits))
	sb.WriteString(fmt.Sprintf("| Stoploss Exits | %d |\n", run.StoplossExits))
	sb.WriteString(fmt.Sprintf("| Timed Exits | %d (%d unresolved) |\n", run.TimedExits, run.UnresolvedExits))
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Accepted Trades | %d |\n", run.AcceptedTrades))
	sb.WriteString(fmt.Sprintf("| Skipped Trades | %d |\n", run.SkippedTrades))
	sb.WriteString(fmt.Sprintf("| Final Capital | %s |\n", run.FinalCapital.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.1f%% |\n", run.WinRatePct))
	sb.WriteString(fmt.Sprintf("| Expected Payoff | %s |\n", run.ExpectedPayoff.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s (%.2f%%) |\n", run.MaxDrawdown.StringFixed(2), run.MaxDrawdownPct))
	sb.WriteString(fmt.Sprintf("| CAGR | %.2f%% |\n", run.CAGRPct))
	sb.WriteString("\n")

	// Thresholds
	sb.WriteString("## Threshold Crossings\n\n")
	if len(r.Thresholds) > 0 {
		sb.WriteString("| Level | Role | Count | Hit Rate | Mean Days | Median Days | Min | Max |\n")
		sb.WriteString("|-------|------|-------|----------|-----------|-------------|-----|-----|\n")
		for _, t := range r.Thresholds {
			role := ""
			switch {
			case t.IsTarget:
				role = "target"
			case t.IsStoploss:
				role = "stoploss"
			}
			sb.WriteString(fmt.Sprintf("| %+.2f%% | %s | %d | %.1f%% | %.2f | %.2f | %d | %d |\n",
				t.Level, role, t.Count, t.HitRatePct, t.MeanDays, t.MedianDays, t.MinDays, t.MaxDays))
		}
	} else {
		sb.WriteString("No threshold statistics available.\n")
	}
	sb.WriteString("\n")

	// Ledger
	sb.WriteString("## Trade Ledger\n\n")
	if len(r.Ledger) > 0 {
		s := r.LedgerStats
		sb.WriteString(fmt.Sprintf("Trades: %d | Wins: %d | Losses: %d | Realized PnL: %s\n\n",
			s.Trades, s.Wins, s.Losses, s.TotalPnL.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("Profit %%: mean %.2f, stddev %.2f, median %.2f, p10 %.2f, p90 %.2f, max consecutive losses %d\n\n",
			s.MeanProfitPct, s.StddevProfitPct, s.MedianProfitPct, s.P10ProfitPct, s.P90ProfitPct, s.MaxConsecutiveLosses))
		sb.WriteString("| Symbol | Purchase | Buy | Sell Date | Sell | Profit % | PnL | Exit |\n")
		sb.WriteString("|--------|----------|-----|-----------|------|----------|-----|------|\n")
		for _, row := range r.Ledger {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				row.Symbol,
				calendar.FormatDate(row.PurchaseDate), row.PurchasePrice.StringFixed(4),
				calendar.FormatDate(row.SellDate), row.SellPrice.StringFixed(4),
				row.ProfitPct.StringFixed(2), row.PnL.StringFixed(2), row.ExitReason))
		}
	} else {
		sb.WriteString("No ledger rows available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
