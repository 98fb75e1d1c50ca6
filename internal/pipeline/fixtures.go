package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/storage"
)

// FixtureSignalDate is the Friday signal shared by every fixture entry.
// The actual entry date is the following Monday, 2024-01-08.
var FixtureSignalDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

// LoadFixtures populates store with a small deterministic bar set and
// returns the matching entries:
//   - AAA reaches +5% two days after entry
//   - BBB falls through -10% one day after entry
//   - CCC never reaches either level and exits on timeout with a close of 21
func LoadFixtures(ctx context.Context, store storage.PriceBarStore) ([]domain.Entry, error) {
	if err := store.InsertBulk(ctx, fixtureBars()); err != nil {
		return nil, err
	}
	return FixtureEntries(), nil
}

// FixtureEntries returns the entries matching the fixture bars.
func FixtureEntries() []domain.Entry {
	return []domain.Entry{
		{Symbol: "AAA", SignalDate: FixtureSignalDate},
		{Symbol: "BBB", SignalDate: FixtureSignalDate},
		{Symbol: "CCC", SignalDate: FixtureSignalDate},
	}
}

func fixtureBars() []*domain.PriceBar {
	d := func(m time.Month, day int) time.Time {
		return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC)
	}
	return []*domain.PriceBar{
		// AAA: entry close 100, high 106 on 2024-01-10
		fixtureBar("AAA", d(1, 8), "100", "101", "99", "100"),
		fixtureBar("AAA", d(1, 9), "100", "103", "99.5", "102"),
		fixtureBar("AAA", d(1, 10), "102", "106", "101", "105.5"),
		fixtureBar("AAA", d(1, 11), "105.5", "107", "104", "106"),

		// BBB: entry close 50, high 44 on 2024-01-09
		fixtureBar("BBB", d(1, 8), "50", "50.5", "49", "50"),
		fixtureBar("BBB", d(1, 9), "43", "44", "42", "43.5"),
		fixtureBar("BBB", d(1, 10), "43.5", "46", "43", "45"),

		// CCC: entry close 20, quiet, then a close of 21 before the timeout date
		fixtureBar("CCC", d(1, 8), "20", "20.2", "19.9", "20"),
		fixtureBar("CCC", d(1, 9), "20", "20.5", "19.5", "20.1"),
		fixtureBar("CCC", d(2, 15), "20.1", "20.6", "19.8", "20.3"),
		fixtureBar("CCC", d(7, 5), "20.8", "21.2", "20.7", "21"),
	}
}

func fixtureBar(symbol string, date time.Time, open, high, low, close string) *domain.PriceBar {
	return &domain.PriceBar{
		Symbol: symbol,
		Date:   date,
		Open:   decimal.RequireFromString(open),
		High:   decimal.RequireFromString(high),
		Low:    decimal.RequireFromString(low),
		Close:  decimal.RequireFromString(close),
		Volume: 1000,
	}
}
