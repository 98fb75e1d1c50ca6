package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunSummary represents one completed study run.
// Corresponds to runs table in Postgres.
type RunSummary struct {
	RunID     string
	CreatedAt time.Time

	// Config snapshot
	TradeSize       decimal.Decimal
	InitialCapital  decimal.Decimal
	MaxTradesPerDay int
	TargetPct       float64
	StoplossPct     float64
	TimeoutDays     int
	PriceField      PriceField

	// Counts
	InputEntries    int // rows read
	UniqueEntries   int // after dedup
	ScannedEntries  int // successful scans
	DroppedEntries  int // data unavailable
	AcceptedTrades  int // taken by the simulator
	SkippedTrades   int // rejected by cap or capital
	LedgerRows      int
	TargetExits     int
	StoplossExits   int
	TimedExits      int
	UnresolvedExits int // TIMED_EXIT without an exit price

	// Metrics
	FinalCapital   decimal.Decimal
	WinRatePct     float64
	ExpectedPayoff decimal.Decimal
	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct float64
	CAGRPct        float64
}
