package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"threshold-lab/internal/domain"
)

// RetryAccessor retries transient fetch failures with exponential backoff.
// maxRetries = 0 performs a single attempt. ErrDataUnavailable and
// context errors are never retried.
type RetryAccessor struct {
	next        Accessor
	maxRetries  uint64
	initialWait time.Duration
	maxWait     time.Duration
	logger      *zap.Logger
}

// NewRetryAccessor wraps next.
func NewRetryAccessor(next Accessor, maxRetries int, initialWait, maxWait time.Duration, logger *zap.Logger) *RetryAccessor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryAccessor{
		next:        next,
		maxRetries:  uint64(maxRetries),
		initialWait: initialWait,
		maxWait:     maxWait,
		logger:      logger,
	}
}

var _ Accessor = (*RetryAccessor)(nil)

// Fetch calls the wrapped accessor, retrying transient errors.
func (a *RetryAccessor) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	if a.maxRetries == 0 {
		return a.next.Fetch(ctx, symbol, start, end)
	}

	eb := backoff.NewExponentialBackOff()
	if a.initialWait > 0 {
		eb.InitialInterval = a.initialWait
	}
	if a.maxWait > 0 {
		eb.MaxInterval = a.maxWait
	}
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, a.maxRetries), ctx)

	op := func() ([]*domain.PriceBar, error) {
		bars, err := a.next.Fetch(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if errors.Is(err, ErrDataUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		a.logger.Warn("retrying price fetch",
			zap.String("symbol", symbol),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return backoff.RetryNotifyWithData(op, policy, notify)
}
