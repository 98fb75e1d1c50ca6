package api

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

type entryRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Date   string `json:"date" binding:"required"`
}

// studyOverrides replaces selected study defaults for one run.
type studyOverrides struct {
	TradeSize       *string   `json:"trade_size"`
	InitialCapital  *string   `json:"initial_capital"`
	MaxTradesPerDay *int      `json:"max_trades_per_day" binding:"omitempty,min=0"`
	TargetPct       *float64  `json:"target_pct" binding:"omitempty,gt=0"`
	StoplossPct     *float64  `json:"stoploss_pct" binding:"omitempty,lt=0"`
	Thresholds      []float64 `json:"thresholds"`
	TimeoutDays     *int      `json:"timeout_days" binding:"omitempty,min=1"`
	PriceField      *string   `json:"price_field" binding:"omitempty,oneof=high low close high_low"`
}

type runRequest struct {
	Entries []entryRequest  `json:"entries" binding:"required,min=1,dive"`
	Study   *studyOverrides `json:"study"`
}

func (r runRequest) domainEntries() ([]domain.Entry, error) {
	out := make([]domain.Entry, 0, len(r.Entries))
	for i, e := range r.Entries {
		symbol := strings.TrimSpace(e.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("entry %d: blank symbol", i)
		}
		date, err := calendar.ParseDate(strings.TrimSpace(e.Date))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, domain.Entry{Symbol: symbol, SignalDate: date})
	}
	return out, nil
}

// apply returns base with the overrides set in o.
func (o *studyOverrides) apply(base domain.StudyConfig) (domain.StudyConfig, error) {
	if o == nil {
		return base, nil
	}
	out := base
	if o.TradeSize != nil {
		v, err := decimal.NewFromString(*o.TradeSize)
		if err != nil || !v.IsPositive() {
			return base, fmt.Errorf("invalid trade_size %q", *o.TradeSize)
		}
		out.TradeSize = v
	}
	if o.InitialCapital != nil {
		v, err := decimal.NewFromString(*o.InitialCapital)
		if err != nil || v.IsNegative() {
			return base, fmt.Errorf("invalid initial_capital %q", *o.InitialCapital)
		}
		out.InitialCapital = v
	}
	if o.MaxTradesPerDay != nil {
		out.MaxTradesPerDay = *o.MaxTradesPerDay
	}
	if o.TimeoutDays != nil {
		out.TimeoutDays = *o.TimeoutDays
	}
	if o.PriceField != nil {
		out.PriceField = domain.PriceField(*o.PriceField)
	}

	if o.TargetPct != nil || o.StoplossPct != nil || o.Thresholds != nil {
		target, stoploss := base.Thresholds.Target, base.Thresholds.Stoploss
		if o.TargetPct != nil {
			target = domain.Threshold(*o.TargetPct)
		}
		if o.StoplossPct != nil {
			stoploss = domain.Threshold(*o.StoplossPct)
		}
		levels := base.Thresholds.Levels
		if o.Thresholds != nil {
			levels = make([]domain.Threshold, len(o.Thresholds))
			for i, l := range o.Thresholds {
				levels[i] = domain.Threshold(l)
			}
		}
		out.Thresholds = domain.NewThresholdSet(levels, target, stoploss)
	}
	return out, nil
}

type runResponse struct {
	RunID           string  `json:"run_id"`
	CreatedAt       string  `json:"created_at"`
	TradeSize       string  `json:"trade_size"`
	InitialCapital  string  `json:"initial_capital"`
	MaxTradesPerDay int     `json:"max_trades_per_day"`
	TargetPct       float64 `json:"target_pct"`
	StoplossPct     float64 `json:"stoploss_pct"`
	TimeoutDays     int     `json:"timeout_days"`
	PriceField      string  `json:"price_field"`
	InputEntries    int     `json:"input_entries"`
	UniqueEntries   int     `json:"unique_entries"`
	ScannedEntries  int     `json:"scanned_entries"`
	DroppedEntries  int     `json:"dropped_entries"`
	AcceptedTrades  int     `json:"accepted_trades"`
	SkippedTrades   int     `json:"skipped_trades"`
	LedgerRows      int     `json:"ledger_rows"`
	TargetExits     int     `json:"target_exits"`
	StoplossExits   int     `json:"stoploss_exits"`
	TimedExits      int     `json:"timed_exits"`
	UnresolvedExits int     `json:"unresolved_exits"`
	FinalCapital    string  `json:"final_capital"`
	WinRatePct      float64 `json:"win_rate_pct"`
	ExpectedPayoff  string  `json:"expected_payoff"`
	MaxDrawdown     string  `json:"max_drawdown"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	CAGRPct         float64 `json:"cagr_pct"`
}

func newRunResponse(r *domain.RunSummary) runResponse {
	return runResponse{
		RunID:           r.RunID,
		CreatedAt:       r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		TradeSize:       r.TradeSize.String(),
		InitialCapital:  r.InitialCapital.String(),
		MaxTradesPerDay: r.MaxTradesPerDay,
		TargetPct:       r.TargetPct,
		StoplossPct:     r.StoplossPct,
		TimeoutDays:     r.TimeoutDays,
		PriceField:      string(r.PriceField),
		InputEntries:    r.InputEntries,
		UniqueEntries:   r.UniqueEntries,
		ScannedEntries:  r.ScannedEntries,
		DroppedEntries:  r.DroppedEntries,
		AcceptedTrades:  r.AcceptedTrades,
		SkippedTrades:   r.SkippedTrades,
		LedgerRows:      r.LedgerRows,
		TargetExits:     r.TargetExits,
		StoplossExits:   r.StoplossExits,
		TimedExits:      r.TimedExits,
		UnresolvedExits: r.UnresolvedExits,
		FinalCapital:    r.FinalCapital.String(),
		WinRatePct:      r.WinRatePct,
		ExpectedPayoff:  r.ExpectedPayoff.StringFixed(2),
		MaxDrawdown:     r.MaxDrawdown.String(),
		MaxDrawdownPct:  r.MaxDrawdownPct,
		CAGRPct:         r.CAGRPct,
	}
}

type ledgerRowResponse struct {
	TradeID       string `json:"trade_id"`
	Symbol        string `json:"symbol"`
	PurchaseDate  string `json:"purchase_date"`
	PurchasePrice string `json:"purchase_price"`
	SellDate      string `json:"sell_date"`
	SellPrice     string `json:"sell_price"`
	ProfitPct     string `json:"profit_pct"`
	PnL           string `json:"pnl"`
	ExitReason    string `json:"exit_reason"`
}

func newLedgerRowResponse(r *domain.TradeLedgerRow) ledgerRowResponse {
	return ledgerRowResponse{
		TradeID:       r.TradeID,
		Symbol:        r.Symbol,
		PurchaseDate:  calendar.FormatDate(r.PurchaseDate),
		PurchasePrice: r.PurchasePrice.String(),
		SellDate:      calendar.FormatDate(r.SellDate),
		SellPrice:     r.SellPrice.String(),
		ProfitPct:     r.ProfitPct.StringFixed(4),
		PnL:           r.PnL.StringFixed(2),
		ExitReason:    string(r.ExitReason),
	}
}

type equityPointResponse struct {
	Date    string `json:"date"`
	Capital string `json:"capital"`
}

type errorResponse struct {
	Error string `json:"error"`
}
