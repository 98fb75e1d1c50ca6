package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Threshold is a signed percentage move from the entry price (5 = +5%, -10 = -10%).
type Threshold float64

// Decimal returns the level as a decimal.
func (t Threshold) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(t))
}

// IsUpside reports whether the level is crossed by rising prices.
func (t Threshold) IsUpside() bool {
	return t > 0
}

// Crossed reports whether pct reaches the level.
// Positive levels need pct >= level, negative levels need pct <= level.
func (t Threshold) Crossed(pct decimal.Decimal) bool {
	if t.IsUpside() {
		return pct.GreaterThanOrEqual(t.Decimal())
	}
	return pct.LessThanOrEqual(t.Decimal())
}

// CrossedBy reports whether price moved from base far enough to reach the level.
// Compares (price-base)*100 against level*base so no division rounding applies.
// base must be positive.
func (t Threshold) CrossedBy(price, base decimal.Decimal) bool {
	move := price.Sub(base).Mul(decimal.NewFromInt(100))
	bound := t.Decimal().Mul(base)
	if t.IsUpside() {
		return move.GreaterThanOrEqual(bound)
	}
	return move.LessThanOrEqual(bound)
}

// ThresholdSet is the ordered set of studied levels.
// Target and Stoploss are always members of Levels.
type ThresholdSet struct {
	Levels   []Threshold
	Target   Threshold
	Stoploss Threshold
}

// NewThresholdSet builds a sorted, de-duplicated set that includes target and stoploss.
func NewThresholdSet(levels []Threshold, target, stoploss Threshold) ThresholdSet {
	seen := make(map[Threshold]struct{}, len(levels)+2)
	all := make([]Threshold, 0, len(levels)+2)
	for _, l := range append(append([]Threshold{}, levels...), target, stoploss) {
		if l == 0 {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	return ThresholdSet{Levels: all, Target: target, Stoploss: stoploss}
}

// ThresholdHit records the first touch of a level.
// Nil fields mean the level was not crossed inside the scan window.
type ThresholdHit struct {
	Days *int
	Date *time.Time
}

// Reached reports whether the level was crossed.
func (h ThresholdHit) Reached() bool {
	return h.Days != nil
}

// ThresholdResult is the outcome of scanning one entry.
type ThresholdResult struct {
	Entry      Entry
	EntryDate  time.Time       // actual entry date (next business day after signal)
	EntryPrice decimal.Decimal // close on EntryDate
	Hits       map[Threshold]ThresholdHit
}

// Hit returns the hit record for level (zero value if never crossed).
func (r *ThresholdResult) Hit(level Threshold) ThresholdHit {
	if r == nil || r.Hits == nil {
		return ThresholdHit{}
	}
	return r.Hits[level]
}

// ThresholdStat aggregates crossings of one level across entries.
type ThresholdStat struct {
	Count int
	Days  []int
}

// ThresholdStats maps each level to its aggregate.
type ThresholdStats map[Threshold]ThresholdStat

// PriceField selects which bar price is compared against thresholds.
type PriceField string

// Price field policies.
const (
	PriceFieldHigh    PriceField = "high"     // High for every level
	PriceFieldLow     PriceField = "low"      // Low for every level
	PriceFieldClose   PriceField = "close"    // Close for every level
	PriceFieldHighLow PriceField = "high_low" // High for upside levels, Low for downside
)

// DayCount selects how elapsed days are counted.
type DayCount string

// Day counting policies.
const (
	DayCountCalendar DayCount = "calendar" // whole calendar days since entry date
	DayCountTrading  DayCount = "trading"  // bars since entry bar
)
