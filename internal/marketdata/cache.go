package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/observability"
)

// DefaultCacheTTL is used when the configured TTL is zero.
const DefaultCacheTTL = 24 * time.Hour

// CachedAccessor is a read-through Redis cache in front of another accessor.
// Cache failures fall through to the wrapped accessor.
type CachedAccessor struct {
	next    Accessor
	client  redis.Cmdable
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCachedAccessor wraps next with a cache on client.
func NewCachedAccessor(next Accessor, client redis.Cmdable, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *CachedAccessor {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAccessor{
		next:    next,
		client:  client,
		ttl:     ttl,
		prefix:  "threshold-lab:bars",
		logger:  logger,
		metrics: metrics,
	}
}

var _ Accessor = (*CachedAccessor)(nil)

// cachedBar is the cache encoding of one bar.
type cachedBar struct {
	Date   string          `json:"d"`
	Open   decimal.Decimal `json:"o"`
	High   decimal.Decimal `json:"h"`
	Low    decimal.Decimal `json:"l"`
	Close  decimal.Decimal `json:"c"`
	Volume int64           `json:"v"`
}

func (a *CachedAccessor) key(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", a.prefix, symbol, calendar.FormatDate(start), calendar.FormatDate(end))
}

// Fetch returns cached bars or loads and caches them.
// Empty series are not cached so late-arriving data is picked up.
func (a *CachedAccessor) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	key := a.key(symbol, start, end)

	raw, err := a.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		bars, decodeErr := decodeBars(symbol, raw)
		if decodeErr == nil {
			a.metrics.RecordCacheLookup("hit")
			return bars, nil
		}
		a.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(decodeErr))
		a.metrics.RecordCacheLookup("error")
	case errors.Is(err, redis.Nil):
		a.metrics.RecordCacheLookup("miss")
	default:
		a.logger.Warn("price cache get failed", zap.String("key", key), zap.Error(err))
		a.metrics.RecordCacheLookup("error")
	}

	bars, err := a.next.Fetch(ctx, symbol, start, end)
	if err != nil || len(bars) == 0 {
		return bars, err
	}

	payload, err := encodeBars(bars)
	if err != nil {
		a.logger.Warn("encode bars for cache", zap.String("key", key), zap.Error(err))
		return bars, nil
	}
	if err := a.client.Set(ctx, key, payload, a.ttl).Err(); err != nil {
		a.logger.Warn("price cache set failed", zap.String("key", key), zap.Error(err))
	}

	return bars, nil
}

func encodeBars(bars []*domain.PriceBar) ([]byte, error) {
	out := make([]cachedBar, len(bars))
	for i, b := range bars {
		out[i] = cachedBar{
			Date:   calendar.FormatDate(b.Date),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return json.Marshal(out)
}

func decodeBars(symbol string, raw []byte) ([]*domain.PriceBar, error) {
	var in []cachedBar
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	bars := make([]*domain.PriceBar, len(in))
	for i, c := range in {
		d, err := calendar.ParseDate(c.Date)
		if err != nil {
			return nil, err
		}
		bars[i] = &domain.PriceBar{
			Symbol: symbol,
			Date:   d,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}
	return bars, nil
}
