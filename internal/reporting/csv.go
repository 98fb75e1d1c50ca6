package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

type ledgerRecord struct {
	TradeID       string `csv:"trade_id"`
	Symbol        string `csv:"symbol"`
	PurchaseDate  string `csv:"purchase_date"`
	PurchasePrice string `csv:"purchase_price"`
	SellDate      string `csv:"sell_date"`
	SellPrice     string `csv:"sell_price"`
	ProfitPct     string `csv:"profit_pct"`
	PnL           string `csv:"pnl"`
	ExitReason    string `csv:"exit_reason"`
}

type equityRecord struct {
	Date    string `csv:"date"`
	Capital string `csv:"capital"`
}

type thresholdRecord struct {
	Level      string `csv:"level"`
	Count      int    `csv:"count"`
	HitRatePct string `csv:"hit_rate_pct"`
	MeanDays   string `csv:"mean_days"`
	MedianDays string `csv:"median_days"`
	Days       string `csv:"days"` // semicolon separated
}

// RenderLedgerCSV renders ledger rows as CSV string.
func RenderLedgerCSV(rows []domain.TradeLedgerRow) (string, error) {
	records := make([]*ledgerRecord, len(rows))
	for i, r := range rows {
		records[i] = &ledgerRecord{
			TradeID:       r.TradeID,
			Symbol:        r.Symbol,
			PurchaseDate:  calendar.FormatDate(r.PurchaseDate),
			PurchasePrice: r.PurchasePrice.String(),
			SellDate:      calendar.FormatDate(r.SellDate),
			SellPrice:     r.SellPrice.String(),
			ProfitPct:     r.ProfitPct.StringFixed(6),
			PnL:           r.PnL.StringFixed(6),
			ExitReason:    string(r.ExitReason),
		}
	}
	return marshal(records)
}

// RenderEquityCSV renders the equity curve as CSV string.
func RenderEquityCSV(points []domain.EquityPoint) (string, error) {
	records := make([]*equityRecord, len(points))
	for i, p := range points {
		records[i] = &equityRecord{
			Date:    calendar.FormatDate(p.Date),
			Capital: p.Capital.StringFixed(6),
		}
	}
	return marshal(records)
}

// RenderThresholdCSV renders threshold rows as CSV string.
func RenderThresholdCSV(rows []ThresholdRow) (string, error) {
	records := make([]*thresholdRecord, len(rows))
	for i, r := range rows {
		days := make([]string, len(r.Days))
		for j, d := range r.Days {
			days[j] = strconv.Itoa(d)
		}
		records[i] = &thresholdRecord{
			Level:      strconv.FormatFloat(r.Level, 'f', -1, 64),
			Count:      r.Count,
			HitRatePct: fmt.Sprintf("%.6f", r.HitRatePct),
			MeanDays:   fmt.Sprintf("%.6f", r.MeanDays),
			MedianDays: fmt.Sprintf("%.6f", r.MedianDays),
			Days:       strings.Join(days, ";"),
		}
	}
	return marshal(records)
}

// marshal writes the header even for an empty slice.
func marshal(records interface{}) (string, error) {
	out, err := gocsv.MarshalString(records)
	if err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return out, nil
}
