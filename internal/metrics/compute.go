// Package metrics derives performance figures from resolved entries, the
// equity curve and the trade ledger. All functions are pure.
package metrics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

const daysPerYear = 365.25

// Drawdown is the worst peak-to-trough decline of an equity curve.
type Drawdown struct {
	Amount decimal.Decimal
	Pct    float64 // Amount / peak at that moment * 100
}

// WinRate returns the share of TARGET exits in percent, rounded to one decimal.
func WinRate(entries []domain.ResolvedEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	wins := 0
	for _, e := range entries {
		if e.Exit.Reason == domain.ExitReasonTarget {
			wins++
		}
	}
	return round1(float64(wins) / float64(len(entries)) * 100)
}

// ExpectedPayoff is the average idealized result per entry:
// (wins*win_amount - losses*loss_amount) / total. Timed exits count in the
// denominator only.
func ExpectedPayoff(entries []domain.ResolvedEntry, cfg domain.StudyConfig) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	var wins, losses int64
	for _, e := range entries {
		switch e.Exit.Reason {
		case domain.ExitReasonTarget:
			wins++
		case domain.ExitReasonStoploss:
			losses++
		}
	}
	gross := cfg.WinAmount().Mul(decimal.NewFromInt(wins)).
		Sub(cfg.LossAmount().Mul(decimal.NewFromInt(losses)))
	return gross.Div(decimal.NewFromInt(int64(len(entries))))
}

// MaxDrawdown scans the curve forward with a running peak.
// The percentage uses the peak in force when the maximum was observed;
// a non-positive peak yields 0%.
func MaxDrawdown(equity []domain.EquityPoint) Drawdown {
	var dd Drawdown
	if len(equity) == 0 {
		return dd
	}

	peak := equity[0].Capital
	for _, p := range equity {
		if p.Capital.GreaterThan(peak) {
			peak = p.Capital
		}
		cur := peak.Sub(p.Capital)
		if cur.GreaterThan(dd.Amount) {
			dd.Amount = cur
			dd.Pct = 0
			if peak.IsPositive() {
				dd.Pct = cur.Div(peak).Mul(decimal.NewFromInt(100)).InexactFloat64()
			}
		}
	}
	return dd
}

// CAGR returns the compound annual growth rate in percent.
// The span runs from the first to the last equity date. A non-positive span
// or initial capital, or a negative final capital, yields 0.
func CAGR(initial, final decimal.Decimal, equity []domain.EquityPoint) float64 {
	if len(equity) < 2 || !initial.IsPositive() || final.IsNegative() {
		return 0
	}
	days := calendar.DaysBetween(equity[0].Date, equity[len(equity)-1].Date)
	if days <= 0 {
		return 0
	}
	years := float64(days) / daysPerYear
	ratio := final.Div(initial).InexactFloat64()
	return (math.Pow(ratio, 1/years) - 1) * 100
}

// ComputeThresholdStats counts, per level of set, the entries that crossed it
// and collects their day counts in input order.
func ComputeThresholdStats(results []*domain.ThresholdResult, set domain.ThresholdSet) domain.ThresholdStats {
	stats := make(domain.ThresholdStats, len(set.Levels))
	for _, level := range set.Levels {
		ts := domain.ThresholdStat{Days: []int{}}
		for _, r := range results {
			if h := r.Hit(level); h.Reached() {
				ts.Count++
				ts.Days = append(ts.Days, *h.Days)
			}
		}
		stats[level] = ts
	}
	return stats
}

// ComputeLedgerStats summarizes realized returns of ledger rows.
// Rows are ordered by PurchaseDate ASC, TradeID ASC before order-dependent
// figures are computed.
func ComputeLedgerStats(rows []domain.TradeLedgerRow) domain.LedgerStats {
	n := len(rows)
	out := domain.LedgerStats{Trades: n, TotalPnL: decimal.Zero}
	if n == 0 {
		return out
	}

	sorted := make([]domain.TradeLedgerRow, n)
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].PurchaseDate.Equal(sorted[j].PurchaseDate) {
			return sorted[i].PurchaseDate.Before(sorted[j].PurchaseDate)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	profits := make([]float64, n)
	for i, r := range sorted {
		profits[i] = r.ProfitPct.InexactFloat64()
		out.TotalPnL = out.TotalPnL.Add(r.PnL)
		if profits[i] > 0 {
			out.Wins++
		} else {
			out.Losses++
		}
	}

	if n > 1 {
		out.MeanProfitPct, out.StddevProfitPct = stat.MeanStdDev(profits, nil)
	} else {
		out.MeanProfitPct = profits[0]
	}
	out.MaxConsecutiveLosses = computeMaxConsecutiveLosses(profits)

	ordered := make([]float64, n)
	copy(ordered, profits)
	sort.Float64s(ordered)
	out.MedianProfitPct = computePercentile(ordered, 0.50)
	out.P10ProfitPct = computePercentile(ordered, 0.10)
	out.P90ProfitPct = computePercentile(ordered, 0.90)
	out.MinProfitPct = ordered[0]
	out.MaxProfitPct = ordered[n-1]

	return out
}

// DaysSummary describes the distribution of days-to-cross of one level.
type DaysSummary struct {
	Mean   float64
	Median float64
	Min    int
	Max    int
}

// SummarizeDays returns the distribution of days; zero for an empty list.
func SummarizeDays(days []int) DaysSummary {
	if len(days) == 0 {
		return DaysSummary{}
	}
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = float64(d)
	}
	sort.Float64s(values)
	return DaysSummary{
		Mean:   stat.Mean(values, nil),
		Median: computePercentile(values, 0.50),
		Min:    int(values[0]),
		Max:    int(values[len(values)-1]),
	}
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxConsecutiveLosses finds longest streak of profit <= 0.
// Profits must be in chronological order.
func computeMaxConsecutiveLosses(profits []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, p := range profits {
		if p <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
