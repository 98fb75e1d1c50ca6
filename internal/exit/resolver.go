// Package exit decides the governing exit of each scanned entry.
package exit

import (
	"context"

	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/lookup"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/observability"
)

// Config holds the exit levels and timeout policy.
type Config struct {
	Target           domain.Threshold
	Stoploss         domain.Threshold
	TimeoutDays      int // calendar days after entry for a timed exit
	ExitLookbackDays int // window before the timed exit date searched for a close
}

// Resolver resolves exits, fetching prices for timed exits.
type Resolver struct {
	accessor marketdata.Accessor
	cfg      Config
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New creates a Resolver. Zero timeout and lookback take their defaults.
func New(accessor marketdata.Accessor, cfg Config, logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	if cfg.TimeoutDays <= 0 {
		cfg.TimeoutDays = domain.DefaultTimeoutDays
	}
	if cfg.ExitLookbackDays <= 0 {
		cfg.ExitLookbackDays = domain.DefaultExitLookbackDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{accessor: accessor, cfg: cfg, logger: logger, metrics: metrics}
}

// Resolve returns the governing exit of result.
// Timed exits look up the close on the exit date, falling back to the last
// close in the lookback window. When no price is obtainable the exit stays
// unresolved (ExitPrice nil).
func (r *Resolver) Resolve(ctx context.Context, result *domain.ThresholdResult) domain.ExitOutcome {
	out := Decide(result, r.cfg.Target, r.cfg.Stoploss, r.cfg.TimeoutDays)
	r.metrics.RecordExit(string(out.Reason))

	if out.Reason != domain.ExitReasonTimedExit {
		return out
	}

	symbol := result.Entry.Symbol
	start := out.ExitDate.AddDate(0, 0, -r.cfg.ExitLookbackDays)

	bars, err := r.accessor.Fetch(ctx, symbol, start, out.ExitDate)
	if err != nil {
		r.logger.Warn("timed exit price fetch failed",
			zap.String("symbol", symbol),
			zap.String("exit_date", calendar.FormatDate(out.ExitDate)),
			zap.Error(err))
		return out
	}

	price, err := lookup.CloseAt(out.ExitDate, bars)
	if err != nil {
		r.logger.Warn("timed exit unresolved",
			zap.String("symbol", symbol),
			zap.String("exit_date", calendar.FormatDate(out.ExitDate)))
		return out
	}

	out.ExitPrice = &price
	return out
}

// Decide applies the tie-break policy without touching prices:
//  1. target reached and (stoploss not reached or target days <= stoploss days): TARGET
//  2. stoploss reached: STOPLOSS
//  3. otherwise TIMED_EXIT after timeoutDays
func Decide(result *domain.ThresholdResult, target, stoploss domain.Threshold, timeoutDays int) domain.ExitOutcome {
	tgt := result.Hit(target)
	stp := result.Hit(stoploss)

	switch {
	case tgt.Reached() && (!stp.Reached() || *tgt.Days <= *stp.Days):
		return domain.ExitOutcome{
			Reason:     domain.ExitReasonTarget,
			DaysToExit: *tgt.Days,
			ExitDate:   *tgt.Date,
		}
	case stp.Reached():
		return domain.ExitOutcome{
			Reason:     domain.ExitReasonStoploss,
			DaysToExit: *stp.Days,
			ExitDate:   *stp.Date,
		}
	default:
		return domain.ExitOutcome{
			Reason:     domain.ExitReasonTimedExit,
			DaysToExit: timeoutDays,
			ExitDate:   result.EntryDate.AddDate(0, 0, timeoutDays),
		}
	}
}
