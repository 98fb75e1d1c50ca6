// Package marketdata provides daily OHLC price series to the study engine.
package marketdata

import (
	"context"
	"errors"
	"time"

	"threshold-lab/internal/domain"
)

// ErrDataUnavailable is returned when a price series is empty or lacks a required date.
var ErrDataUnavailable = errors.New("price data unavailable")

// Accessor fetches daily bars for a symbol within [start, end] (inclusive).
// Bars are ordered by date ASC. An empty result is not an error.
type Accessor interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error)
}

// AccessorFunc adapts a function to Accessor.
type AccessorFunc func(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error)

// Fetch calls f.
func (f AccessorFunc) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	return f(ctx, symbol, start, end)
}
