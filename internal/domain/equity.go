package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is the capital after all accepted entries of one date.
type EquityPoint struct {
	Date    time.Time
	Capital decimal.Decimal
}

// SkipReason explains why the simulator did not take an entry.
type SkipReason string

// Skip reasons
const (
	SkipReasonNone              SkipReason = ""
	SkipReasonDailyCap          SkipReason = "DAILY_CAP"
	SkipReasonInsufficientFunds SkipReason = "INSUFFICIENT_CAPITAL"
)

// SimulatedTrade records the simulator decision for one entry.
type SimulatedTrade struct {
	Symbol     string
	Date       time.Time
	Reason     ExitReason
	Accepted   bool
	SkipReason SkipReason
	PnL        decimal.Decimal // zero when skipped
}
