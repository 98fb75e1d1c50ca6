package exit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/marketdata"
)

var entryDate = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func hit(days int) domain.ThresholdHit {
	date := entryDate.AddDate(0, 0, days)
	return domain.ThresholdHit{Days: &days, Date: &date}
}

func result(hits map[domain.Threshold]domain.ThresholdHit) *domain.ThresholdResult {
	return &domain.ThresholdResult{
		Entry:      domain.Entry{Symbol: "AAA", SignalDate: entryDate.AddDate(0, 0, -3)},
		EntryDate:  entryDate,
		EntryPrice: decimal.NewFromInt(100),
		Hits:       hits,
	}
}

func noCalls(t *testing.T) marketdata.Accessor {
	return marketdata.AccessorFunc(func(context.Context, string, time.Time, time.Time) ([]*domain.PriceBar, error) {
		t.Error("unexpected fetch for non-timed exit")
		return nil, nil
	})
}

func TestDecide_TargetOnly(t *testing.T) {
	out := Decide(result(map[domain.Threshold]domain.ThresholdHit{5: hit(2), -10: {}}), 5, -10, 180)

	if out.Reason != domain.ExitReasonTarget || out.DaysToExit != 2 {
		t.Errorf("expected TARGET on day 2, got %s/%d", out.Reason, out.DaysToExit)
	}
	if !out.ExitDate.Equal(entryDate.AddDate(0, 0, 2)) {
		t.Errorf("expected exit on target hit date, got %s", out.ExitDate)
	}
}

func TestDecide_StoplossFirst(t *testing.T) {
	out := Decide(result(map[domain.Threshold]domain.ThresholdHit{5: hit(4), -10: hit(1)}), 5, -10, 180)

	if out.Reason != domain.ExitReasonStoploss || out.DaysToExit != 1 {
		t.Errorf("expected STOPLOSS on day 1, got %s/%d", out.Reason, out.DaysToExit)
	}
}

func TestDecide_SameDayFavorsTarget(t *testing.T) {
	for days := 0; days < 5; days++ {
		out := Decide(result(map[domain.Threshold]domain.ThresholdHit{5: hit(days), -10: hit(days)}), 5, -10, 180)
		if out.Reason != domain.ExitReasonTarget {
			t.Errorf("day %d: expected TARGET on double touch, got %s", days, out.Reason)
		}
	}
}

func TestDecide_StoplossOnly(t *testing.T) {
	out := Decide(result(map[domain.Threshold]domain.ThresholdHit{5: {}, -10: hit(7)}), 5, -10, 180)

	if out.Reason != domain.ExitReasonStoploss || out.DaysToExit != 7 {
		t.Errorf("expected STOPLOSS on day 7, got %s/%d", out.Reason, out.DaysToExit)
	}
}

func TestDecide_Timeout(t *testing.T) {
	out := Decide(result(map[domain.Threshold]domain.ThresholdHit{}), 5, -10, 180)

	if out.Reason != domain.ExitReasonTimedExit || out.DaysToExit != 180 {
		t.Errorf("expected TIMED_EXIT after 180 days, got %s/%d", out.Reason, out.DaysToExit)
	}
	if !out.ExitDate.Equal(entryDate.AddDate(0, 0, 180)) {
		t.Errorf("expected exit date entry+180, got %s", out.ExitDate)
	}
	if out.ExitPrice != nil {
		t.Error("Decide must not set an exit price")
	}
}

func TestResolve_NonTimedDoesNotFetch(t *testing.T) {
	r := New(noCalls(t), Config{Target: 5, Stoploss: -10}, nil, nil)

	out := r.Resolve(context.Background(), result(map[domain.Threshold]domain.ThresholdHit{5: hit(2)}))
	if out.Reason != domain.ExitReasonTarget || out.ExitPrice != nil {
		t.Errorf("expected TARGET without exit price, got %+v", out)
	}
}

func TestResolve_TimedExitExactClose(t *testing.T) {
	exitDate := entryDate.AddDate(0, 0, 180)
	var gotStart, gotEnd time.Time
	acc := marketdata.AccessorFunc(func(_ context.Context, _ string, start, end time.Time) ([]*domain.PriceBar, error) {
		gotStart, gotEnd = start, end
		c := decimal.NewFromInt(120)
		return []*domain.PriceBar{{Symbol: "AAA", Date: exitDate, Open: c, High: c, Low: c, Close: c}}, nil
	})
	r := New(acc, Config{Target: 5, Stoploss: -10}, nil, nil)

	out := r.Resolve(context.Background(), result(nil))
	if out.ExitPrice == nil || !out.ExitPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected exit price 120, got %v", out.ExitPrice)
	}
	if !gotEnd.Equal(exitDate) || !gotStart.Equal(exitDate.AddDate(0, 0, -7)) {
		t.Errorf("expected window [exit-7, exit], got [%s, %s]", gotStart, gotEnd)
	}
}

func TestResolve_TimedExitFallsBackToLastClose(t *testing.T) {
	exitDate := entryDate.AddDate(0, 0, 180)
	acc := marketdata.AccessorFunc(func(context.Context, string, time.Time, time.Time) ([]*domain.PriceBar, error) {
		a, b := decimal.NewFromInt(90), decimal.NewFromInt(95)
		return []*domain.PriceBar{
			{Symbol: "AAA", Date: exitDate.AddDate(0, 0, -3), Open: a, High: a, Low: a, Close: a},
			{Symbol: "AAA", Date: exitDate.AddDate(0, 0, -2), Open: b, High: b, Low: b, Close: b},
		}, nil
	})
	r := New(acc, Config{Target: 5, Stoploss: -10}, nil, nil)

	out := r.Resolve(context.Background(), result(nil))
	if out.ExitPrice == nil || !out.ExitPrice.Equal(decimal.NewFromInt(95)) {
		t.Errorf("expected fallback exit price 95, got %v", out.ExitPrice)
	}
}

func TestResolve_TimedExitUnresolved(t *testing.T) {
	empty := marketdata.AccessorFunc(func(context.Context, string, time.Time, time.Time) ([]*domain.PriceBar, error) {
		return nil, nil
	})
	failing := marketdata.AccessorFunc(func(context.Context, string, time.Time, time.Time) ([]*domain.PriceBar, error) {
		return nil, errors.New("provider down")
	})

	for name, acc := range map[string]marketdata.Accessor{"empty": empty, "error": failing} {
		r := New(acc, Config{Target: 5, Stoploss: -10, TimeoutDays: 30}, nil, nil)

		out := r.Resolve(context.Background(), result(nil))
		if out.Reason != domain.ExitReasonTimedExit || out.DaysToExit != 30 {
			t.Errorf("%s: expected TIMED_EXIT after 30 days, got %s/%d", name, out.Reason, out.DaysToExit)
		}
		if out.ExitPrice != nil {
			t.Errorf("%s: expected unresolved exit price, got %s", name, out.ExitPrice)
		}
	}
}
