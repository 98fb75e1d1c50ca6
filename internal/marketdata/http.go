package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRPS     = 5.0
	DefaultBurst   = 5
)

// HTTPAccessor fetches bars from a REST provider:
// GET {base}/bars?symbol=S&start=YYYY-MM-DD&end=YYYY-MM-DD -> JSON array of bars.
// Requests are throttled by a token bucket and guarded by a circuit breaker.
type HTTPAccessor struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Metrics
}

// HTTPOption configures HTTPAccessor.
type HTTPOption func(*HTTPAccessor)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(a *HTTPAccessor) {
		a.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(a *HTTPAccessor) {
		a.client = client
	}
}

// WithRateLimit sets requests per second and burst.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(a *HTTPAccessor) {
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) HTTPOption {
	return func(a *HTTPAccessor) {
		a.apiKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) HTTPOption {
	return func(a *HTTPAccessor) {
		a.logger = l
	}
}

// WithMetrics records provider requests.
func WithMetrics(m *observability.Metrics) HTTPOption {
	return func(a *HTTPAccessor) {
		a.metrics = m
	}
}

// NewHTTPAccessor creates a provider client for baseURL.
func NewHTTPAccessor(baseURL string, opts ...HTTPOption) *HTTPAccessor {
	a := &HTTPAccessor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRPS), DefaultBurst),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.breaker = newBreaker("price-provider", a.logger)
	return a
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	st.IsSuccessful = func(err error) bool {
		// Missing data is a valid answer, not a provider fault
		return err == nil || errors.Is(err, ErrDataUnavailable)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("circuit breaker state change",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
	return gobreaker.NewCircuitBreaker(st)
}

var _ Accessor = (*HTTPAccessor)(nil)

// barJSON is the wire format of one bar. Numbers may arrive quoted or bare;
// they are converted per row so one bad value does not fail the response.
type barJSON struct {
	Date   string          `json:"date"`
	Open   json.RawMessage `json:"open"`
	High   json.RawMessage `json:"high"`
	Low    json.RawMessage `json:"low"`
	Close  json.RawMessage `json:"close"`
	Volume json.RawMessage `json:"volume"`
}

// parseNumber converts a bare or quoted JSON number.
func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	text := string(raw)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	if text == "" || text == "null" {
		return decimal.Zero, errors.New("missing value")
	}
	return decimal.NewFromString(text)
}

// Fetch requests bars for symbol in [start, end].
// A 404 response yields an empty series.
func (a *HTTPAccessor) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	began := time.Now()
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.get(ctx, symbol, start, end)
	})
	a.metrics.RecordProviderRequest("http", err, time.Since(began).Seconds())
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	return result.([]*domain.PriceBar), nil
}

func (a *HTTPAccessor) get(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", calendar.FormatDate(start))
	q.Set("end", calendar.FormatDate(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/bars?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrDataUnavailable
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited (429)")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw []barJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	bars := make([]*domain.PriceBar, 0, len(raw))
	for _, r := range raw {
		d, err := calendar.ParseDate(r.Date)
		if err != nil {
			// Leave it for the scanner to reject as malformed
			a.logger.Warn("bad bar date from provider",
				zap.String("symbol", symbol), zap.String("date", r.Date))
		}
		bar := &domain.PriceBar{Symbol: symbol, Date: d}
		// Unparseable prices stay zero so Validate rejects only this row
		fields := []struct {
			name string
			raw  json.RawMessage
			dst  *decimal.Decimal
		}{
			{"open", r.Open, &bar.Open},
			{"high", r.High, &bar.High},
			{"low", r.Low, &bar.Low},
			{"close", r.Close, &bar.Close},
		}
		for _, f := range fields {
			v, err := parseNumber(f.raw)
			if err != nil {
				a.logger.Warn("bad bar price from provider",
					zap.String("symbol", symbol),
					zap.String("date", r.Date),
					zap.String("field", f.name),
					zap.Error(err))
				continue
			}
			*f.dst = v
		}
		if len(r.Volume) > 0 {
			if v, err := parseNumber(r.Volume); err == nil {
				bar.Volume = v.IntPart()
			}
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return bars, nil
}
