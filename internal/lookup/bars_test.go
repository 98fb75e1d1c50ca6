package lookup

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, close float64) *domain.PriceBar {
	c := decimal.NewFromFloat(close)
	return &domain.PriceBar{Symbol: "AAA", Date: day(d), Open: c, High: c, Low: c, Close: c}
}

func TestBarOn_EmptySlice(t *testing.T) {
	_, err := BarOn(day(2), nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}
}

func TestBarOn_ExactMatch(t *testing.T) {
	bars := []*domain.PriceBar{bar(2, 10), bar(3, 11), bar(4, 12)}

	b, err := BarOn(day(3), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Close.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected 11, got %s", b.Close)
	}
}

func TestBarOn_Missing(t *testing.T) {
	bars := []*domain.PriceBar{bar(2, 10), bar(4, 12)}

	_, err := BarOn(day(3), bars)
	if !errors.Is(err, ErrNoBarOnDate) {
		t.Errorf("expected ErrNoBarOnDate, got %v", err)
	}
}

func TestBarOn_SkipsNilBars(t *testing.T) {
	bars := []*domain.PriceBar{nil, bar(3, 11), nil}

	b, err := BarOn(day(3), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Close.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected 11, got %s", b.Close)
	}

	if _, err := BarOn(day(4), []*domain.PriceBar{nil}); !errors.Is(err, ErrNoBarOnDate) {
		t.Errorf("expected ErrNoBarOnDate, got %v", err)
	}
	if _, err := CloseAt(day(4), []*domain.PriceBar{nil, bar(3, 11)}); err != nil {
		t.Errorf("CloseAt should skip nil bars, got %v", err)
	}
}

func TestCloseAt_ExactMatch(t *testing.T) {
	bars := []*domain.PriceBar{bar(2, 10), bar(3, 11), bar(4, 12)}

	c, err := CloseAt(day(3), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected 11, got %s", c)
	}
}

func TestCloseAt_NonTradingDayFallsBack(t *testing.T) {
	// Target is a weekend, last close before it wins
	bars := []*domain.PriceBar{bar(4, 10), bar(5, 11)}

	c, err := CloseAt(day(7), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected 11, got %s", c)
	}
}

func TestCloseAt_SkipsMalformed(t *testing.T) {
	bad := bar(5, 0)
	bars := []*domain.PriceBar{bar(4, 10), bad}

	c, err := CloseAt(day(5), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10, got %s", c)
	}
}

func TestCloseAt_AllAfterTarget(t *testing.T) {
	bars := []*domain.PriceBar{bar(10, 20), bar(11, 21)}

	c, err := CloseAt(day(2), bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Equal(decimal.NewFromInt(21)) {
		t.Errorf("expected last available 21, got %s", c)
	}
}

func TestCloseAt_NoData(t *testing.T) {
	_, err := CloseAt(day(2), nil)
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData, got %v", err)
	}

	_, err = CloseAt(day(2), []*domain.PriceBar{bar(2, 0)})
	if !errors.Is(err, ErrNoPriceData) {
		t.Errorf("expected ErrNoPriceData for malformed-only slice, got %v", err)
	}
}
