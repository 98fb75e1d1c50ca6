package memory

import (
	"context"
	"errors"
	"testing"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

func TestTradeLedgerStore_InsertBulkAndGetByRunID(t *testing.T) {
	store := NewTradeLedgerStore()
	ctx := context.Background()

	rows := []*domain.TradeLedgerRow{
		{RunID: "r1", TradeID: "t2", Symbol: "BBB", PurchaseDate: day(5)},
		{RunID: "r1", TradeID: "t1", Symbol: "AAA", PurchaseDate: day(5)},
		{RunID: "r1", TradeID: "t0", Symbol: "ZZZ", PurchaseDate: day(4)},
		{RunID: "r2", TradeID: "t1", Symbol: "AAA", PurchaseDate: day(5)},
	}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(got))
	}
	want := []string{"ZZZ", "AAA", "BBB"}
	for i, sym := range want {
		if got[i].Symbol != sym {
			t.Errorf("row %d: expected %s, got %s", i, sym, got[i].Symbol)
		}
	}
}

func TestTradeLedgerStore_DuplicateKey(t *testing.T) {
	store := NewTradeLedgerStore()
	ctx := context.Background()

	rows := []*domain.TradeLedgerRow{{RunID: "r1", TradeID: "t1", Symbol: "AAA"}}
	if err := store.InsertBulk(ctx, rows); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	if err := store.InsertBulk(ctx, rows); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeLedgerStore_MissingRunID(t *testing.T) {
	store := NewTradeLedgerStore()

	err := store.InsertBulk(context.Background(), []*domain.TradeLedgerRow{{TradeID: "t1"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
