package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedBar is returned by PriceBar.Validate for rows that cannot be used.
var ErrMalformedBar = errors.New("malformed price bar")

// PriceBar is one daily OHLC row for a symbol.
// Corresponds to price_bars table in ClickHouse.
type PriceBar struct {
	Symbol string          // ticker
	Date   time.Time       // trading date (UTC midnight)
	Open   decimal.Decimal // open
	High   decimal.Decimal // high
	Low    decimal.Decimal // low
	Close  decimal.Decimal // close
	Volume int64           // shares traded
}

// Validate reports ErrMalformedBar if the row cannot take part in a scan.
func (b *PriceBar) Validate() error {
	if b == nil || b.Date.IsZero() {
		return ErrMalformedBar
	}
	if !b.Close.IsPositive() || !b.High.IsPositive() || !b.Low.IsPositive() {
		return ErrMalformedBar
	}
	if b.High.LessThan(b.Low) {
		return ErrMalformedBar
	}
	return nil
}

// Field returns the price selected by f.
func (b *PriceBar) Field(f PriceField) decimal.Decimal {
	switch f {
	case PriceFieldLow:
		return b.Low
	case PriceFieldClose:
		return b.Close
	default:
		return b.High
	}
}
