// Package scanner finds the first day each threshold is crossed after entry.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/lookup"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/observability"
)

// Config controls the scan window and comparison policy.
type Config struct {
	Thresholds     domain.ThresholdSet
	ScanWindowDays int               // forward window from entry date, calendar days
	PriceField     domain.PriceField // which bar price is compared
	DayCount       domain.DayCount   // how elapsed days are counted
}

// Scanner scans entries against a price accessor.
type Scanner struct {
	accessor marketdata.Accessor
	calendar calendar.Calendar
	cfg      Config
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New creates a Scanner. Zero-valued config fields take their defaults.
func New(accessor marketdata.Accessor, cal calendar.Calendar, cfg Config, logger *zap.Logger, metrics *observability.Metrics) *Scanner {
	if cfg.ScanWindowDays <= 0 {
		cfg.ScanWindowDays = domain.DefaultScanWindowDays
	}
	if cfg.PriceField == "" {
		cfg.PriceField = domain.PriceFieldHigh
	}
	if cfg.DayCount == "" {
		cfg.DayCount = domain.DayCountCalendar
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		accessor: accessor,
		calendar: cal,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Scan computes the threshold crossings of one entry.
// Returns an error wrapping marketdata.ErrDataUnavailable when the series is
// empty or has no usable bar on the actual entry date. No retry is attempted.
func (s *Scanner) Scan(ctx context.Context, entry domain.Entry) (*domain.ThresholdResult, error) {
	entryDate := s.calendar.NextBusinessDay(entry.SignalDate)
	end := entryDate.AddDate(0, 0, s.cfg.ScanWindowDays)

	bars, err := s.accessor.Fetch(ctx, entry.Symbol, entryDate, end)
	if err != nil {
		s.metrics.RecordScan("error")
		return nil, fmt.Errorf("fetch %s: %w", entry.Symbol, err)
	}

	entryBar, err := lookup.BarOn(entryDate, bars)
	if err != nil || entryBar.Validate() != nil {
		s.metrics.RecordScan("unavailable")
		return nil, fmt.Errorf("%w: %s has no usable bar on %s", marketdata.ErrDataUnavailable,
			entry.Symbol, calendar.FormatDate(entryDate))
	}

	result := &domain.ThresholdResult{
		Entry:      entry,
		EntryDate:  entryDate,
		EntryPrice: entryBar.Close,
	}
	var malformed int
	result.Hits, malformed = Walk(entryDate, entryBar.Close, bars, s.cfg)

	if malformed > 0 {
		s.logger.Warn("skipped malformed bars",
			zap.String("symbol", entry.Symbol),
			zap.Int("count", malformed))
		for i := 0; i < malformed; i++ {
			s.metrics.RecordMalformedBar()
		}
	}
	s.metrics.RecordScan("ok")

	return result, nil
}

// Walk evaluates bars in date order against every configured level.
// The first touch of a level is recorded and never re-evaluated.
// Bars before entryDate are ignored. Returns the hits for every level and
// the number of malformed bars skipped.
func Walk(entryDate time.Time, entryPrice decimal.Decimal, bars []*domain.PriceBar, cfg Config) (map[domain.Threshold]domain.ThresholdHit, int) {
	hits := make(map[domain.Threshold]domain.ThresholdHit, len(cfg.Thresholds.Levels))
	for _, level := range cfg.Thresholds.Levels {
		hits[level] = domain.ThresholdHit{}
	}
	if !entryPrice.IsPositive() {
		return hits, 0
	}

	pending := len(cfg.Thresholds.Levels)
	malformed := 0
	index := -1

	for _, b := range bars {
		if b == nil || b.Date.Before(entryDate) {
			continue
		}
		index++
		if pending == 0 {
			break
		}
		if err := b.Validate(); err != nil {
			if errors.Is(err, domain.ErrMalformedBar) {
				malformed++
			}
			continue
		}

		days := calendar.DaysBetween(entryDate, b.Date)
		if cfg.DayCount == domain.DayCountTrading {
			days = index
		}

		for _, level := range cfg.Thresholds.Levels {
			if hits[level].Reached() {
				continue
			}
			if !level.CrossedBy(priceFor(b, level, cfg.PriceField), entryPrice) {
				continue
			}
			d, date := days, b.Date
			hits[level] = domain.ThresholdHit{Days: &d, Date: &date}
			pending--
		}
	}

	return hits, malformed
}

// priceFor picks the bar price compared against level.
func priceFor(b *domain.PriceBar, level domain.Threshold, field domain.PriceField) decimal.Decimal {
	if field == domain.PriceFieldHighLow {
		if level.IsUpside() {
			return b.High
		}
		return b.Low
	}
	return b.Field(field)
}
