// Package entries loads study entries from CSV and collapses duplicates.
package entries

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
)

// ErrInvalidEntry is returned for a row without a symbol or with an unparsable date.
var ErrInvalidEntry = errors.New("invalid entry")

// record is one CSV row. Columns other than symbol and date are ignored.
type record struct {
	Symbol string `csv:"symbol"`
	Date   string `csv:"date"`
}

// Load reads entries from CSV with a header row.
func Load(r io.Reader) ([]domain.Entry, error) {
	var records []*record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse entries csv: %w", err)
	}

	out := make([]domain.Entry, 0, len(records))
	for i, rec := range records {
		line := i + 2 // header is line 1
		symbol := strings.TrimSpace(rec.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("%w: line %d: blank symbol", ErrInvalidEntry, line)
		}
		date, err := calendar.ParseDate(strings.TrimSpace(rec.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidEntry, line, err)
		}
		out = append(out, domain.Entry{Symbol: symbol, SignalDate: date})
	}
	return out, nil
}

// LoadFile reads entries from the CSV file at path.
func LoadFile(path string) ([]domain.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entries: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Dedup keeps one entry per symbol, the one with the earliest signal date.
// The result is ordered by signal date ASC; ties keep input order.
func Dedup(in []domain.Entry) []domain.Entry {
	sorted := make([]domain.Entry, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SignalDate.Before(sorted[j].SignalDate)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]domain.Entry, 0, len(sorted))
	for _, e := range sorted {
		if _, ok := seen[e.Symbol]; ok {
			continue
		}
		seen[e.Symbol] = struct{}{}
		out = append(out, e)
	}
	return out
}
