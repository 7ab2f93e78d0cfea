package pipeline

import (
	"strings"

	"rolls/internal"
)

// LabeledCell is one data cell together with its section label.
type LabeledCell struct {
	Section string
	Value   string
}

const lateMarker = "late"

// LabelRow pairs a row's data cells with their sections. Unlabeled columns are
// dropped.
func LabelRow(row internal.Row, cols ColumnMap) []LabeledCell {
	out := make([]LabeledCell, 0, cols.Len())
	for i, value := range row.Cells {
		label, ok := cols.Label(i)
		if !ok {
			break
		}
		out = append(out, LabeledCell{Section: label, Value: value})
	}
	return out
}

// ExtractRow splits each non-blank cell on ';' and yields one entry per name
// token, left to right. In commaSection commas separate names too.
func ExtractRow(cells []LabeledCell, commaSection string) []internal.RawEntry {
	out := []internal.RawEntry{}
	for _, cell := range cells {
		value := strings.TrimSpace(cell.Value)
		if value == "" {
			continue
		}
		if commaSection != "" && cell.Section == commaSection {
			value = strings.ReplaceAll(value, ",", ";")
		}
		for _, token := range strings.Split(value, ";") {
			token = strings.TrimSpace(token)
			if token == "" || strings.EqualFold(token, lateMarker) {
				continue
			}
			out = append(out, internal.RawEntry{Text: token, Section: cell.Section})
		}
	}
	return out
}

// dedupeEntries keeps the first occurrence of each literal text. The section
// it was first seen under wins.
func dedupeEntries(entries []internal.RawEntry) []internal.RawEntry {
	seen := map[string]struct{}{}
	out := make([]internal.RawEntry, 0, len(entries))
	for _, e := range entries {
		if _, exists := seen[e.Text]; exists {
			continue
		}
		seen[e.Text] = struct{}{}
		out = append(out, e)
	}
	return out
}
