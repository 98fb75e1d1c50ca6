package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
	"threshold-lab/internal/storage/memory"
)

var fixedClock = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func testRun() *domain.RunSummary {
	return &domain.RunSummary{
		RunID:           "run-1",
		CreatedAt:       day(20),
		TradeSize:       decimal.NewFromInt(1000),
		InitialCapital:  decimal.NewFromInt(10000),
		MaxTradesPerDay: 2,
		TargetPct:       5,
		StoplossPct:     -10,
		TimeoutDays:     180,
		PriceField:      domain.PriceFieldHigh,
		InputEntries:    3,
		UniqueEntries:   3,
		ScannedEntries:  2,
		DroppedEntries:  1,
		AcceptedTrades:  2,
		LedgerRows:      2,
		TargetExits:     1,
		StoplossExits:   1,
		FinalCapital:    decimal.NewFromInt(9950),
		WinRatePct:      50,
		ExpectedPayoff:  decimal.NewFromInt(-25),
		MaxDrawdown:     decimal.NewFromInt(100),
		MaxDrawdownPct:  0.99,
	}
}

func testStats() domain.ThresholdStats {
	return domain.ThresholdStats{
		5:   {Count: 1, Days: []int{2}},
		-10: {Count: 1, Days: []int{1}},
		10:  {Count: 0, Days: []int{}},
	}
}

func testEquity() []domain.EquityPoint {
	return []domain.EquityPoint{
		{Date: day(4), Capital: decimal.NewFromInt(10050)},
		{Date: day(5), Capital: decimal.NewFromInt(9950)},
	}
}

func testLedger() []domain.TradeLedgerRow {
	return []domain.TradeLedgerRow{
		{TradeID: "t1", RunID: "run-1", Symbol: "AAA", PurchaseDate: day(4), PurchasePrice: decimal.NewFromInt(100),
			SellDate: day(6), SellPrice: decimal.NewFromInt(105), ProfitPct: decimal.NewFromInt(5), PnL: decimal.NewFromInt(50),
			ExitReason: domain.ExitReasonTarget},
		{TradeID: "t2", RunID: "run-1", Symbol: "BBB", PurchaseDate: day(5), PurchasePrice: decimal.NewFromInt(50),
			SellDate: day(6), SellPrice: decimal.NewFromInt(45), ProfitPct: decimal.NewFromInt(-10), PnL: decimal.NewFromInt(-100),
			ExitReason: domain.ExitReasonStoploss},
	}
}

func TestBuild_ThresholdRows(t *testing.T) {
	r := Build(fixedClock(), testRun(), testStats(), testEquity(), testLedger())

	if len(r.Thresholds) != 3 {
		t.Fatalf("expected 3 threshold rows, got %d", len(r.Thresholds))
	}
	if r.Thresholds[0].Level != -10 || r.Thresholds[2].Level != 10 {
		t.Errorf("expected rows sorted by level, got %+v", r.Thresholds)
	}
	if !r.Thresholds[0].IsStoploss || !r.Thresholds[1].IsTarget {
		t.Errorf("expected stoploss/target roles, got %+v", r.Thresholds)
	}
	if r.Thresholds[1].HitRatePct != 50 {
		t.Errorf("expected 50%% hit rate, got %f", r.Thresholds[1].HitRatePct)
	}
	if r.LedgerStats.Trades != 2 || !r.LedgerStats.TotalPnL.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("unexpected ledger stats %+v", r.LedgerStats)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(Build(fixedClock(), testRun(), testStats(), testEquity(), testLedger()))

	for _, want := range []string{
		"# Threshold Study Report",
		"Run: `run-1`",
		"Generated: 2024-06-01T12:00:00Z",
		"| Win Rate | 50.0% |",
		"| Max Drawdown | 100.00 (0.99%) |",
		"| +5.00% | target | 1 | 50.0% |",
		"| AAA | 2024-03-04 |",
		"TARGET",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(Build(fixedClock(), testRun(), nil, nil, nil))

	if !strings.Contains(md, "No threshold statistics available.") {
		t.Error("expected empty threshold notice")
	}
	if !strings.Contains(md, "No ledger rows available.") {
		t.Error("expected empty ledger notice")
	}
}

func TestRenderCSV(t *testing.T) {
	ledgerCSV, err := RenderLedgerCSV(testLedger())
	if err != nil {
		t.Fatalf("RenderLedgerCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(ledgerCSV), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "trade_id,symbol,purchase_date,purchase_price,sell_date,sell_price,profit_pct,pnl,exit_reason" {
		t.Errorf("unexpected ledger header %q", lines[0])
	}
	if lines[1] != "t1,AAA,2024-03-04,100,2024-03-06,105,5.000000,50.000000,TARGET" {
		t.Errorf("unexpected ledger row %q", lines[1])
	}

	equityCSV, err := RenderEquityCSV(testEquity())
	if err != nil {
		t.Fatalf("RenderEquityCSV failed: %v", err)
	}
	if !strings.Contains(equityCSV, "2024-03-05,9950.000000") {
		t.Errorf("unexpected equity csv %q", equityCSV)
	}

	rows := Build(fixedClock(), testRun(), domain.ThresholdStats{5: {Count: 2, Days: []int{2, 4}}}, nil, nil).Thresholds
	thresholdCSV, err := RenderThresholdCSV(rows)
	if err != nil {
		t.Fatalf("RenderThresholdCSV failed: %v", err)
	}
	if !strings.Contains(thresholdCSV, "5,2,100.000000,3.000000,3.000000,2;4") {
		t.Errorf("unexpected threshold csv %q", thresholdCSV)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	if err := WriteFiles(dir, Build(fixedClock(), testRun(), testStats(), testEquity(), testLedger())); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	for _, name := range []string{ReportFile, LedgerFile, EquityFile, ThresholdStatsFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	runStore := memory.NewRunStore()
	ledgerStore := memory.NewTradeLedgerStore()
	statStore := memory.NewThresholdStatStore()
	equityStore := memory.NewEquityCurveStore()

	if err := runStore.Insert(ctx, testRun()); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}
	rows := testLedger()
	ptrs := make([]*domain.TradeLedgerRow, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	if err := ledgerStore.InsertBulk(ctx, ptrs); err != nil {
		t.Fatalf("Insert ledger failed: %v", err)
	}
	if err := statStore.Insert(ctx, "run-1", testStats()); err != nil {
		t.Fatalf("Insert stats failed: %v", err)
	}
	if err := equityStore.InsertBulk(ctx, "run-1", testEquity()); err != nil {
		t.Fatalf("Insert equity failed: %v", err)
	}

	gen := NewGenerator(runStore, ledgerStore, statStore, equityStore).WithClock(fixedClock)

	// Generate twice: output must be identical.
	r1, err := gen.Generate(ctx, "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	r2, err := gen.Generate(ctx, "run-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if RenderMarkdown(r1) != RenderMarkdown(r2) {
		t.Error("report output not deterministic")
	}
	if len(r1.Ledger) != 2 || len(r1.Equity) != 2 || len(r1.Thresholds) != 3 {
		t.Errorf("unexpected report contents: %d ledger, %d equity, %d thresholds",
			len(r1.Ledger), len(r1.Equity), len(r1.Thresholds))
	}
}

func TestGenerator_UnknownRun(t *testing.T) {
	gen := NewGenerator(memory.NewRunStore(), memory.NewTradeLedgerStore(), memory.NewThresholdStatStore(), memory.NewEquityCurveStore())

	_, err := gen.Generate(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
