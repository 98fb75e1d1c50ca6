package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"threshold-lab/internal/reporting"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	gainColor   = color.New(color.FgGreen)
	lossColor   = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// printSummary writes a short colored run summary to w.
func printSummary(w io.Writer, r *reporting.Report) {
	run := r.Run

	headerColor.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintf(w, "  entries      %d input, %d unique, %d scanned, %d dropped\n",
		run.InputEntries, run.UniqueEntries, run.ScannedEntries, run.DroppedEntries)
	fmt.Fprintf(w, "  exits        %d target, %d stoploss, %d timed (%d unresolved)\n",
		run.TargetExits, run.StoplossExits, run.TimedExits, run.UnresolvedExits)
	fmt.Fprintf(w, "  trades       %d accepted, %d skipped\n", run.AcceptedTrades, run.SkippedTrades)

	capital := gainColor
	if run.FinalCapital.LessThan(run.InitialCapital) {
		capital = lossColor
	}
	fmt.Fprintf(w, "  capital      %s -> ", run.InitialCapital.StringFixed(2))
	capital.Fprintf(w, "%s\n", run.FinalCapital.StringFixed(2))

	fmt.Fprintf(w, "  win rate     %.1f%%\n", run.WinRatePct)
	fmt.Fprintf(w, "  payoff       %s per entry\n", run.ExpectedPayoff.StringFixed(2))
	fmt.Fprintf(w, "  drawdown     %s (%.2f%%)\n", run.MaxDrawdown.StringFixed(2), run.MaxDrawdownPct)
	fmt.Fprintf(w, "  CAGR         %.2f%%\n", run.CAGRPct)

	headerColor.Fprintln(w, "Thresholds")
	for _, t := range r.Thresholds {
		marker := ""
		switch {
		case t.IsTarget:
			marker = " target"
		case t.IsStoploss:
			marker = " stoploss"
		}
		fmt.Fprintf(w, "  %+7.2f%%  %4d hits  %6.2f%%", t.Level, t.Count, t.HitRatePct)
		dimColor.Fprintf(w, "%s\n", marker)
	}
}
