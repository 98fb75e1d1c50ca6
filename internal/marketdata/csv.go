package marketdata

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

// barRecord is one row of a bars CSV export.
type barRecord struct {
	Symbol string `csv:"symbol"`
	Date   string `csv:"date"`
	Open   string `csv:"open"`
	High   string `csv:"high"`
	Low    string `csv:"low"`
	Close  string `csv:"close"`
	Volume string `csv:"volume"`
}

// LoadBarsCSV parses daily bars from CSV with columns
// symbol,date,open,high,low,close[,volume]. When defaultSymbol is set it fills
// rows with an empty or missing symbol column.
// Unparsable rows fail the whole load; the store rejects partial imports anyway.
func LoadBarsCSV(r io.Reader, defaultSymbol string) ([]*domain.PriceBar, error) {
	var records []*barRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse bars csv: %w", err)
	}

	bars := make([]*domain.PriceBar, 0, len(records))
	for i, rec := range records {
		bar, err := rec.toBar(defaultSymbol)
		if err != nil {
			return nil, fmt.Errorf("bars csv line %d: %w", i+2, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// LoadBarsCSVFile parses the bars CSV at path.
func LoadBarsCSVFile(path, defaultSymbol string) ([]*domain.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()
	return LoadBarsCSV(f, defaultSymbol)
}

func (r *barRecord) toBar(defaultSymbol string) (*domain.PriceBar, error) {
	symbol := strings.TrimSpace(r.Symbol)
	if symbol == "" {
		symbol = defaultSymbol
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: blank symbol", domain.ErrMalformedBar)
	}

	date, err := calendar.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", domain.ErrMalformedBar, r.Date)
	}

	prices := make([]decimal.Decimal, 4)
	for i, raw := range []string{r.Open, r.High, r.Low, r.Close} {
		p, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: price %q", domain.ErrMalformedBar, raw)
		}
		prices[i] = p
	}

	var volume int64
	if v := strings.TrimSpace(r.Volume); v != "" {
		// Some exports write volume as a float.
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: volume %q", domain.ErrMalformedBar, v)
		}
		volume = int64(f)
	}

	return &domain.PriceBar{
		Symbol: symbol,
		Date:   date,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}, nil
}
