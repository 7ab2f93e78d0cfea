package pipeline

import (
	"rolls/internal"
	"rolls/internal/util"
)

// Assemble builds the final roll in bucket order.
func Assemble(b Buckets, stats internal.Statistics, skipped []internal.SkippedEntry) internal.Result {
	records := make([]internal.OutputRecord, 0, b.Len())
	for _, n := range b.Ordered() {
		records = append(records, ToRecord(n))
	}
	if skipped == nil {
		skipped = []internal.SkippedEntry{}
	}
	return internal.Result{Records: records, Stats: stats, Skipped: skipped}
}

func ToRecord(n internal.ParsedName) internal.OutputRecord {
	return internal.OutputRecord{
		Rank:      n.Rank,
		Surname:   n.Surname,
		FirstName: util.Deref(n.FirstName),
		FullName:  n.Original,
		Section:   n.Section,
	}
}
