package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"rolls/internal"
	"rolls/internal/schema"
)

var (
	ErrNoDates       = errors.New("no valid dates found")
	ErrNoRowsForDate = errors.New("no records for date")
)

const dayLayout = "2006-01-02"

// Slice keeps the timestamp column and every column from the first section
// column onwards. Column letters follow the spreadsheet ("C", "K").
func Slice(sheet Sheet, layout schema.Layout) ([]internal.Row, error) {
	tsCol, err := columnIndex(layout.TimestampColumn, "A")
	if err != nil {
		return nil, err
	}
	firstCol, err := columnIndex(layout.FirstSectionColumn, "B")
	if err != nil {
		return nil, err
	}

	out := make([]internal.Row, 0, len(sheet.Rows))
	for _, raw := range sheet.Rows {
		row := internal.Row{Timestamp: cell(raw, tsCol)}
		if firstCol < len(raw) {
			row.Cells = append([]string{}, raw[firstCol:]...)
		}
		out = append(out, row)
	}
	return out, nil
}

func columnIndex(letters, fallback string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		letters = fallback
	}
	n, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return 0, fmt.Errorf("bad column %q: %w", letters, err)
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// DateParser reads sign-in timestamps as written by the export: Excel serials,
// ISO dates, or slash dates whose day/month order depends on the locale.
type DateParser struct {
	DayFirst bool
}

var isoLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	dayLayout,
}

// Sheets exported from US-locale Excel and form tools carry 12-hour clocks.
var dayFirstLayouts = []string{
	"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006 3:04:05 PM", "2/1/2006 3:04 PM",
	"2/1/2006", "2/1/06 15:04", "2/1/06 3:04 PM", "2/1/06",
}
var monthFirstLayouts = []string{
	"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006 3:04:05 PM", "1/2/2006 3:04 PM",
	"1/2/2006", "1/2/06 15:04", "1/2/06 3:04 PM", "1/2/06",
}

// Day returns the calendar day of a timestamp cell.
func (p DateParser) Day(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return truncateDay(t), true
	}

	layouts := append([]string{}, isoLayouts...)
	if p.DayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}
	// time.Parse only knows upper-case AM/PM.
	value = strings.ToUpper(value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Dates lists the distinct days present, most recent first.
func (p DateParser) Dates(rows []internal.Row) []time.Time {
	seen := map[time.Time]struct{}{}
	out := []time.Time{}
	for _, r := range rows {
		d, ok := p.Day(r.Timestamp)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

// Filter returns the batch for one day. Rows without a parseable timestamp
// never match.
func (p DateParser) Filter(rows []internal.Row, day time.Time) (internal.Batch, error) {
	day = truncateDay(day)
	batch := internal.Batch{}
	for _, r := range rows {
		d, ok := p.Day(r.Timestamp)
		if ok && d.Equal(day) {
			batch.Rows = append(batch.Rows, r)
		}
	}
	if len(batch.Rows) == 0 {
		return internal.Batch{}, fmt.Errorf("%w: %s", ErrNoRowsForDate, day.Format(dayLayout))
	}
	return batch, nil
}

// Select picks the requested day, or the most recent one when day is empty.
func (p DateParser) Select(rows []internal.Row, day string) (internal.Batch, time.Time, error) {
	dates := p.Dates(rows)
	if len(dates) == 0 {
		return internal.Batch{}, time.Time{}, ErrNoDates
	}
	target := dates[0]
	if strings.TrimSpace(day) != "" {
		parsed, err := time.Parse(dayLayout, strings.TrimSpace(day))
		if err != nil {
			return internal.Batch{}, time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD: %w", day, err)
		}
		target = parsed
	}
	batch, err := p.Filter(rows, target)
	if err != nil {
		return internal.Batch{}, time.Time{}, err
	}
	return batch, truncateDay(target), nil
}

func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}
