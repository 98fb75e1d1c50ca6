package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason identifies the governing exit of an entry.
type ExitReason string

// Exit reason codes
const (
	ExitReasonTarget    ExitReason = "TARGET"
	ExitReasonStoploss  ExitReason = "STOPLOSS"
	ExitReasonTimedExit ExitReason = "TIMED_EXIT"
)

// ExitOutcome is the resolved exit for one entry.
type ExitOutcome struct {
	Reason     ExitReason
	DaysToExit int
	ExitDate   time.Time
	ExitPrice  *decimal.Decimal // TIMED_EXIT only; nil when unresolved
}
