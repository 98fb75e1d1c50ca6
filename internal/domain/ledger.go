package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeLedgerRow is the finalized, price-realized record of one entry.
// Corresponds to trade_ledger table in Postgres.
type TradeLedgerRow struct {
	TradeID       string // deterministic hash
	RunID         string // owning run (empty until persisted)
	Symbol        string
	PurchaseDate  time.Time
	PurchasePrice decimal.Decimal
	SellDate      time.Time
	SellPrice     decimal.Decimal
	ProfitPct     decimal.Decimal // (sell - buy) / buy * 100
	PnL           decimal.Decimal // trade_size * (sell - buy) / buy
	ExitReason    ExitReason
}

// LedgerStats summarizes realized returns across ledger rows.
type LedgerStats struct {
	Trades int
	Wins   int // ProfitPct > 0
	Losses int

	MeanProfitPct   float64
	StddevProfitPct float64 // sample stddev
	MedianProfitPct float64
	P10ProfitPct    float64
	P90ProfitPct    float64
	MinProfitPct    float64
	MaxProfitPct    float64

	MaxConsecutiveLosses int // in purchase-date order
	TotalPnL             decimal.Decimal
}
