package simulation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func testConfig(capital int64, maxPerDay int) domain.StudyConfig {
	return domain.StudyConfig{
		TradeSize:       dec(1000),
		InitialCapital:  dec(capital),
		MaxTradesPerDay: maxPerDay,
		Thresholds:      domain.NewThresholdSet(nil, 5, -10),
	}
}

func resolved(symbol string, entry time.Time, reason domain.ExitReason) domain.ResolvedEntry {
	return domain.ResolvedEntry{
		Result: &domain.ThresholdResult{
			Entry:      domain.Entry{Symbol: symbol, SignalDate: entry.AddDate(0, 0, -1)},
			EntryDate:  entry,
			EntryPrice: dec(100),
		},
		Exit: domain.ExitOutcome{Reason: reason},
	}
}

func timed(symbol string, entry time.Time, exit *decimal.Decimal) domain.ResolvedEntry {
	e := resolved(symbol, entry, domain.ExitReasonTimedExit)
	e.Exit.ExitPrice = exit
	return e
}

func TestSimulate_PnLRules(t *testing.T) {
	up := dec(120)
	entries := []domain.ResolvedEntry{
		resolved("A", day(2), domain.ExitReasonTarget),   // +50
		resolved("B", day(3), domain.ExitReasonStoploss), // -100
		timed("C", day(4), &up),                          // +200
		timed("D", day(5), nil),                          // 0
	}

	res := Simulate(entries, testConfig(10000, 0))

	want := []int64{10050, 9950, 10150, 10150}
	if len(res.Equity) != len(want) {
		t.Fatalf("expected %d equity points, got %d", len(want), len(res.Equity))
	}
	for i, w := range want {
		if !res.Equity[i].Capital.Equal(dec(w)) {
			t.Errorf("point %d: expected %d, got %s", i, w, res.Equity[i].Capital)
		}
	}
	if !res.FinalCapital.Equal(dec(10150)) {
		t.Errorf("expected final capital 10150, got %s", res.FinalCapital)
	}
	if res.Accepted() != 4 || res.Skipped() != 0 {
		t.Errorf("expected 4 accepted, got %d accepted %d skipped", res.Accepted(), res.Skipped())
	}
}

func TestSimulate_DailyCapExcessUncharged(t *testing.T) {
	entries := []domain.ResolvedEntry{
		resolved("A", day(2), domain.ExitReasonStoploss),
		resolved("B", day(2), domain.ExitReasonStoploss),
		resolved("C", day(2), domain.ExitReasonStoploss),
	}

	res := Simulate(entries, testConfig(10000, 1))

	if len(res.Equity) != 1 {
		t.Fatalf("expected 1 equity point, got %d", len(res.Equity))
	}
	if !res.FinalCapital.Equal(dec(9900)) {
		t.Errorf("expected only one loss charged, got %s", res.FinalCapital)
	}
	if !res.Trades[0].Accepted || res.Trades[0].Symbol != "A" {
		t.Errorf("expected first entry of the day accepted, got %+v", res.Trades[0])
	}
	for _, tr := range res.Trades[1:] {
		if tr.Accepted || tr.SkipReason != domain.SkipReasonDailyCap {
			t.Errorf("expected %s skipped by daily cap, got %+v", tr.Symbol, tr)
		}
		if !tr.PnL.IsZero() {
			t.Errorf("skipped trade %s must carry zero pnl", tr.Symbol)
		}
	}
}

func TestSimulate_CapitalGate(t *testing.T) {
	entries := []domain.ResolvedEntry{
		resolved("A", day(2), domain.ExitReasonStoploss), // 1000 -> 900
		resolved("B", day(3), domain.ExitReasonTarget),   // 900 < 1000, skipped
	}

	res := Simulate(entries, testConfig(1000, 0))

	if !res.FinalCapital.Equal(dec(900)) {
		t.Errorf("expected 900, got %s", res.FinalCapital)
	}
	if res.Trades[1].Accepted || res.Trades[1].SkipReason != domain.SkipReasonInsufficientFunds {
		t.Errorf("expected B skipped for capital, got %+v", res.Trades[1])
	}
	// The skipped day still produces a point.
	if len(res.Equity) != 2 || !res.Equity[1].Capital.Equal(dec(900)) {
		t.Errorf("expected flat second point at 900, got %+v", res.Equity)
	}
}

func TestSimulate_CapitalEqualToTradeSizeIsAccepted(t *testing.T) {
	res := Simulate([]domain.ResolvedEntry{resolved("A", day(2), domain.ExitReasonTarget)}, testConfig(1000, 0))

	if res.Accepted() != 1 || !res.FinalCapital.Equal(dec(1050)) {
		t.Errorf("expected accepted trade to 1050, got accepted=%d final=%s", res.Accepted(), res.FinalCapital)
	}
}

func TestSimulate_GroupsSortedByDate(t *testing.T) {
	entries := []domain.ResolvedEntry{
		resolved("LATE", day(9), domain.ExitReasonTarget),
		resolved("EARLY", day(2), domain.ExitReasonStoploss),
		resolved("MID1", day(5), domain.ExitReasonTarget),
		resolved("MID2", day(5), domain.ExitReasonStoploss),
	}

	res := Simulate(entries, testConfig(10000, 0))

	if len(res.Equity) != 3 {
		t.Fatalf("expected 3 points, got %d", len(res.Equity))
	}
	for i := 1; i < len(res.Equity); i++ {
		if !res.Equity[i].Date.After(res.Equity[i-1].Date) {
			t.Errorf("equity dates not strictly ascending at %d", i)
		}
	}
	order := []string{"EARLY", "MID1", "MID2", "LATE"}
	for i, sym := range order {
		if res.Trades[i].Symbol != sym {
			t.Errorf("trade %d: expected %s, got %s", i, sym, res.Trades[i].Symbol)
		}
	}
}

func TestSimulate_Empty(t *testing.T) {
	res := Simulate(nil, testConfig(5000, 2))

	if len(res.Equity) != 0 || len(res.Trades) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if !res.FinalCapital.Equal(dec(5000)) {
		t.Errorf("expected final capital to equal initial, got %s", res.FinalCapital)
	}
}

func TestSimulate_ThreeEntryScenario(t *testing.T) {
	entries := []domain.ResolvedEntry{
		resolved("AAA", day(2), domain.ExitReasonTarget),
		resolved("BBB", day(2), domain.ExitReasonStoploss),
		resolved("CCC", day(3), domain.ExitReasonTarget),
	}

	res := Simulate(entries, testConfig(10000, 1))

	// BBB is over the daily cap, so only the two targets are charged.
	if !res.FinalCapital.Equal(dec(10100)) {
		t.Errorf("expected 10100, got %s", res.FinalCapital)
	}
	if len(res.Equity) != 2 {
		t.Errorf("expected 2 equity points, got %d", len(res.Equity))
	}
}

func TestProfitPct(t *testing.T) {
	if got := ProfitPct(dec(100), dec(110)); !got.Equal(dec(10)) {
		t.Errorf("expected 10, got %s", got)
	}
	if got := ProfitPct(dec(200), dec(150)); !got.Equal(dec(-25)) {
		t.Errorf("expected -25, got %s", got)
	}
	if got := ProfitPct(decimal.Zero, dec(1)); !got.IsZero() {
		t.Errorf("expected 0 for zero entry, got %s", got)
	}
}
