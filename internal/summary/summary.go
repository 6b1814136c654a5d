// Package summary aggregates credited amounts per calendar day.
package summary

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/parser"
)

// DateLayout is the export form of summary dates.
const DateLayout = "2006-01-02"

// Entry is the credited total for one calendar day.
type Entry struct {
	Date          time.Time
	TotalCredited float64
}

// MarshalJSON writes the entry as {"date":"YYYY-MM-DD","totalCredited":n}.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date          string  `json:"date"`
		TotalCredited float64 `json:"totalCredited"`
	}{e.Day(), e.TotalCredited})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date          string  `json:"date"`
		TotalCredited float64 `json:"totalCredited"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	day, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return err
	}
	e.Date, e.TotalCredited = day, raw.TotalCredited
	return nil
}

// Day returns the entry date as YYYY-MM-DD.
func (e Entry) Day() string {
	return e.Date.Format(DateLayout)
}

// Summary is the daily credit summary, most recent day first.
type Summary struct {
	Entries []Entry
	// Skipped counts credit records whose date could not be coerced.
	Skipped int
}

// Aggregate buckets CREDIT transactions by date and sums each bucket. Records
// with an unparseable date are left out of the summary and counted in Skipped.
func Aggregate(txns []models.Transaction) *Summary {
	s := &Summary{}
	totals := make(map[time.Time]decimal.Decimal)

	for _, txn := range txns {
		if txn.Direction != models.Credit {
			continue
		}
		day, ok := parser.ParseDate(txn.Date)
		if !ok {
			s.Skipped++
			continue
		}
		totals[day] = totals[day].Add(decimal.NewFromFloat(txn.Amount))
	}

	s.Entries = make([]Entry, 0, len(totals))
	for day, total := range totals {
		s.Entries = append(s.Entries, Entry{
			Date:          day,
			TotalCredited: total.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(s.Entries, func(i, j int) bool {
		return s.Entries[i].Date.After(s.Entries[j].Date)
	})

	return s
}

// GrandTotal is the sum of every entry's credited total.
func (s *Summary) GrandTotal() float64 {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(decimal.NewFromFloat(e.TotalCredited))
	}
	return total.Round(2).InexactFloat64()
}

// Empty reports whether no day received any credit.
func (s *Summary) Empty() bool {
	return len(s.Entries) == 0
}
