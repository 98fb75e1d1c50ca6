package lookup

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData = errors.New("no price data available")
	ErrNoBarOnDate = errors.New("no bar on requested date")
)

// BarOn returns the bar dated exactly on target.
// Nil bars are skipped.
// Returns ErrNoPriceData if slice is empty, ErrNoBarOnDate if no bar matches.
func BarOn(target time.Time, bars []*domain.PriceBar) (*domain.PriceBar, error) {
	if len(bars) == 0 {
		return nil, ErrNoPriceData
	}

	for _, b := range bars {
		if b == nil {
			continue
		}
		if b.Date.Equal(target) {
			return b, nil
		}
	}

	return nil, ErrNoBarOnDate
}

// CloseAt returns the close at or before target.
// Bars must be ordered by date ASC. Malformed bars are ignored.
// If no bar at or before target, returns the last valid close in the slice.
// Returns ErrNoPriceData if no valid bar exists.
func CloseAt(target time.Time, bars []*domain.PriceBar) (decimal.Decimal, error) {
	var last *domain.PriceBar

	// Find closest close at or before target
	for i := len(bars) - 1; i >= 0; i-- {
		b := bars[i]
		if b.Validate() != nil {
			continue
		}
		if last == nil {
			last = b
		}
		if !b.Date.After(target) {
			return b.Close, nil
		}
	}

	if last == nil {
		return decimal.Zero, ErrNoPriceData
	}

	// Nothing before target, use last available
	return last.Close, nil
}
