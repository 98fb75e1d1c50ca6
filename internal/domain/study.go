package domain

import "github.com/shopspring/decimal"

// StudyConfig holds the parameters of one backtest study.
type StudyConfig struct {
	TradeSize        decimal.Decimal
	InitialCapital   decimal.Decimal
	MaxTradesPerDay  int
	Thresholds       ThresholdSet
	TimeoutDays      int
	ScanWindowDays   int
	ExitLookbackDays int
	PriceField       PriceField
	DayCount         DayCount
}

// Study defaults
const (
	DefaultTimeoutDays      = 180
	DefaultScanWindowDays   = 90
	DefaultExitLookbackDays = 7
)

// TargetPct returns the target level as a decimal percentage.
func (c StudyConfig) TargetPct() decimal.Decimal {
	return c.Thresholds.Target.Decimal()
}

// StoplossPct returns the stoploss level as a decimal percentage (negative).
func (c StudyConfig) StoplossPct() decimal.Decimal {
	return c.Thresholds.Stoploss.Decimal()
}

// WinAmount is the idealized profit of a TARGET exit.
func (c StudyConfig) WinAmount() decimal.Decimal {
	return c.TradeSize.Mul(c.TargetPct()).Div(decimal.NewFromInt(100))
}

// LossAmount is the idealized loss (positive number) of a STOPLOSS exit.
func (c StudyConfig) LossAmount() decimal.Decimal {
	return c.TradeSize.Mul(c.StoplossPct().Abs()).Div(decimal.NewFromInt(100))
}
