// Package ledger realizes resolved entries into priced trade ledger rows.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/idhash"
	"threshold-lab/internal/lookup"
	"threshold-lab/internal/marketdata"
	"threshold-lab/internal/observability"
	"threshold-lab/internal/simulation"
)

// ErrNoPurchasePrice is returned when no usable purchase close exists.
var ErrNoPurchasePrice = errors.New("no purchase price")

// Builder builds ledger rows from realized prices.
type Builder struct {
	accessor  marketdata.Accessor
	tradeSize decimal.Decimal
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewBuilder creates a ledger builder.
func NewBuilder(accessor marketdata.Accessor, tradeSize decimal.Decimal, logger *zap.Logger, metrics *observability.Metrics) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{accessor: accessor, tradeSize: tradeSize, logger: logger, metrics: metrics}
}

// Build returns one row per entry whose prices could be realized, in input order.
// Entries whose window cannot be fetched or holds no usable price are omitted.
func (b *Builder) Build(ctx context.Context, entries []domain.ResolvedEntry) []domain.TradeLedgerRow {
	rows := make([]domain.TradeLedgerRow, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		row, err := b.buildRow(ctx, e)
		if err != nil {
			b.logger.Warn("ledger row omitted",
				zap.String("symbol", e.Symbol()),
				zap.String("entry_date", calendar.FormatDate(e.EntryDate())),
				zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	b.metrics.RecordLedgerRows(len(rows))
	return rows
}

func (b *Builder) buildRow(ctx context.Context, e domain.ResolvedEntry) (domain.TradeLedgerRow, error) {
	entryDate := e.EntryDate()
	sellDate := e.Exit.ExitDate

	bars, err := b.accessor.Fetch(ctx, e.Symbol(), entryDate, sellDate)
	if err != nil {
		return domain.TradeLedgerRow{}, fmt.Errorf("fetch: %w", err)
	}
	if len(bars) == 0 {
		return domain.TradeLedgerRow{}, marketdata.ErrDataUnavailable
	}

	buy, err := purchaseClose(entryDate, bars)
	if err != nil {
		return domain.TradeLedgerRow{}, err
	}
	sell, err := lookup.CloseAt(sellDate, bars)
	if err != nil {
		return domain.TradeLedgerRow{}, fmt.Errorf("sale price: %w", err)
	}

	profitPct := simulation.ProfitPct(buy, sell)
	return domain.TradeLedgerRow{
		TradeID:       idhash.ComputeTradeID(e.Symbol(), entryDate, string(e.Exit.Reason)),
		Symbol:        e.Symbol(),
		PurchaseDate:  entryDate,
		PurchasePrice: buy,
		SellDate:      sellDate,
		SellPrice:     sell,
		ProfitPct:     profitPct,
		PnL:           b.tradeSize.Mul(sell.Sub(buy)).Div(buy),
		ExitReason:    e.Exit.Reason,
	}, nil
}

// purchaseClose returns the close on entryDate, else the first valid close.
func purchaseClose(entryDate time.Time, bars []*domain.PriceBar) (decimal.Decimal, error) {
	if bar, err := lookup.BarOn(entryDate, bars); err == nil && bar.Validate() == nil {
		return bar.Close, nil
	}
	for _, bar := range bars {
		if bar.Validate() == nil {
			return bar.Close, nil
		}
	}
	return decimal.Zero, ErrNoPurchasePrice
}
