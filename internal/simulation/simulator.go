// Package simulation folds resolved entries into a capital-constrained equity curve.
package simulation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Result is the frozen outcome of one simulation.
type Result struct {
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	Equity         []domain.EquityPoint    // one point per entry date, ascending
	Trades         []domain.SimulatedTrade // decision per entry, in processing order
}

// Accepted returns the number of entries the simulator took.
func (r *Result) Accepted() int {
	n := 0
	for _, t := range r.Trades {
		if t.Accepted {
			n++
		}
	}
	return n
}

// Skipped returns the number of entries rejected by the daily cap or capital gate.
func (r *Result) Skipped() int {
	return len(r.Trades) - r.Accepted()
}

// Simulate runs the sequential equity fold.
// Entries are grouped by actual entry date in ascending order; the order within
// a date is preserved. An entry is skipped when the day already took
// MaxTradesPerDay entries or when the running capital is below TradeSize.
// Capital after each date group becomes one equity point.
func Simulate(entries []domain.ResolvedEntry, cfg domain.StudyConfig) *Result {
	res := &Result{
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   cfg.InitialCapital,
	}

	capital := cfg.InitialCapital
	for _, group := range groupByDate(entries) {
		taken := 0
		for _, e := range group.entries {
			trade := domain.SimulatedTrade{
				Symbol: e.Symbol(),
				Date:   group.date,
				Reason: e.Exit.Reason,
				PnL:    decimal.Zero,
			}

			switch {
			case cfg.MaxTradesPerDay > 0 && taken >= cfg.MaxTradesPerDay:
				trade.SkipReason = domain.SkipReasonDailyCap
			case capital.LessThan(cfg.TradeSize):
				trade.SkipReason = domain.SkipReasonInsufficientFunds
			default:
				trade.Accepted = true
				trade.PnL = TradePnL(e, cfg)
				capital = capital.Add(trade.PnL)
				taken++
			}

			res.Trades = append(res.Trades, trade)
		}

		res.Equity = append(res.Equity, domain.EquityPoint{Date: group.date, Capital: capital})
	}

	res.FinalCapital = capital
	return res
}

// TradePnL returns the idealized profit or loss of one accepted entry.
// TARGET and STOPLOSS use the configured levels; TIMED_EXIT uses the realized
// exit price, or zero when it is unknown.
func TradePnL(e domain.ResolvedEntry, cfg domain.StudyConfig) decimal.Decimal {
	switch e.Exit.Reason {
	case domain.ExitReasonTarget:
		return cfg.WinAmount()
	case domain.ExitReasonStoploss:
		return cfg.LossAmount().Neg()
	case domain.ExitReasonTimedExit:
		entry := e.Result.EntryPrice
		if e.Exit.ExitPrice == nil || !entry.IsPositive() {
			return decimal.Zero
		}
		return cfg.TradeSize.Mul(e.Exit.ExitPrice.Sub(entry)).Div(entry)
	default:
		return decimal.Zero
	}
}

type dateGroup struct {
	date    time.Time
	entries []domain.ResolvedEntry
}

// groupByDate buckets entries by entry date, ascending, keeping input order inside a bucket.
func groupByDate(entries []domain.ResolvedEntry) []dateGroup {
	idx := make(map[int64]int)
	var groups []dateGroup
	for _, e := range entries {
		d := e.EntryDate()
		i, ok := idx[d.Unix()]
		if !ok {
			i = len(groups)
			idx[d.Unix()] = i
			groups = append(groups, dateGroup{date: d})
		}
		groups[i].entries = append(groups[i].entries, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].date.Before(groups[j].date)
	})
	return groups
}

// ProfitPct is (exit - entry) / entry * 100, zero for a non-positive entry.
func ProfitPct(entry, exit decimal.Decimal) decimal.Decimal {
	if !entry.IsPositive() {
		return decimal.Zero
	}
	return exit.Sub(entry).Div(entry).Mul(hundred)
}
