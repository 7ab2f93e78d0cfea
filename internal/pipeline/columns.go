package pipeline

import "rolls/internal/schema"

// ColumnMap labels the data columns of a batch by position. It is a side
// lookup; the batch itself is never renamed.
type ColumnMap struct {
	labels []string
}

// MapColumns binds the first min(numDataColumns, len(sections)) data columns
// to the schema's labels. Columns past the schema are left unlabeled.
func MapColumns(s schema.Schema, numDataColumns int) ColumnMap {
	n := min(max(numDataColumns, 0), len(s.Sections))
	labels := make([]string, n)
	copy(labels, s.Sections[:n])
	return ColumnMap{labels: labels}
}

func (m ColumnMap) Len() int { return len(m.labels) }

// Label returns the section for data column i.
func (m ColumnMap) Label(i int) (string, bool) {
	if i < 0 || i >= len(m.labels) {
		return "", false
	}
	return m.labels[i], true
}
