package marketdata

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"threshold-lab/internal/domain"
)

func TestLoadBarsCSV(t *testing.T) {
	csv := "symbol,date,open,high,low,close,volume\n" +
		"AAA,2024-01-02,10.5,11.25,10,11,1200\n" +
		"AAA,2024-01-03,11,12,10.75,11.5,1.5e3\n"

	bars, err := LoadBarsCSV(strings.NewReader(csv), "")
	if err != nil {
		t.Fatalf("LoadBarsCSV failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	b := bars[0]
	if b.Symbol != "AAA" || !b.Date.Equal(utcDay(2024, 1, 2)) {
		t.Errorf("unexpected bar identity %+v", b)
	}
	if !b.High.Equal(decimal.RequireFromString("11.25")) || !b.Close.Equal(decimal.NewFromInt(11)) {
		t.Errorf("unexpected prices %+v", b)
	}
	if b.Volume != 1200 || bars[1].Volume != 1500 {
		t.Errorf("unexpected volumes %d, %d", b.Volume, bars[1].Volume)
	}
}

func TestLoadBarsCSV_DefaultSymbol(t *testing.T) {
	csv := "date,open,high,low,close\n2024-01-02,1,2,1,2\n"

	bars, err := LoadBarsCSV(strings.NewReader(csv), "ZZZ")
	if err != nil {
		t.Fatalf("LoadBarsCSV failed: %v", err)
	}
	if len(bars) != 1 || bars[0].Symbol != "ZZZ" || bars[0].Volume != 0 {
		t.Errorf("unexpected bars %+v", bars)
	}
}

func TestLoadBarsCSV_Malformed(t *testing.T) {
	cases := map[string]string{
		"no symbol": "date,open,high,low,close\n2024-01-02,1,2,1,2\n",
		"bad price": "symbol,date,open,high,low,close\nAAA,2024-01-02,1,x,1,2\n",
		"bad date":  "symbol,date,open,high,low,close\nAAA,01/02/2024,1,2,1,2\n",
	}
	for name, csv := range cases {
		_, err := LoadBarsCSV(strings.NewReader(csv), "")
		if !errors.Is(err, domain.ErrMalformedBar) {
			t.Errorf("%s: expected ErrMalformedBar, got %v", name, err)
		}
	}
}
