package pipeline

import (
	"cmp"
	"slices"

	"rolls/internal"
	"rolls/internal/ranks"
	"rolls/internal/schema"
)

type Aggregator struct {
	schema schema.Schema
	ranks  ranks.Tables
}

func NewAggregator(s schema.Schema, tables ranks.Tables) Aggregator {
	return Aggregator{schema: s, ranks: tables}
}

type Buckets struct {
	Staff     []internal.ParsedName
	Executive []internal.ParsedName
	Other     []internal.ParsedName
}

func (b Buckets) Len() int {
	return len(b.Staff) + len(b.Executive) + len(b.Other)
}

// Ordered concatenates staff, executives and everyone else.
func (b Buckets) Ordered() []internal.ParsedName {
	out := make([]internal.ParsedName, 0, b.Len())
	out = append(out, b.Staff...)
	out = append(out, b.Executive...)
	return append(out, b.Other...)
}

// BucketFor decides the output group of a parsed name from its section, or
// from its rank when the section mixes staff and executives.
func (a Aggregator) BucketFor(name internal.ParsedName) internal.Bucket {
	switch {
	case a.schema.StaffSection != "" && name.Section == a.schema.StaffSection:
		return internal.BucketStaff
	case a.schema.ExecutiveSection != "" && name.Section == a.schema.ExecutiveSection:
		return internal.BucketExecutive
	case a.schema.MergedSection != "" && name.Section == a.schema.MergedSection:
		if a.ranks.IsStaff(name.Rank) {
			return internal.BucketStaff
		}
		return internal.BucketExecutive
	default:
		return internal.BucketOther
	}
}

// Group buckets names in encounter order and sorts each bucket.
func (a Aggregator) Group(names []internal.ParsedName) Buckets {
	var b Buckets
	for _, n := range names {
		switch a.BucketFor(n) {
		case internal.BucketStaff:
			b.Staff = append(b.Staff, n)
		case internal.BucketExecutive:
			b.Executive = append(b.Executive, n)
		default:
			b.Other = append(b.Other, n)
		}
	}
	a.Sort(b.Staff, true)
	a.Sort(b.Executive, false)
	a.Sort(b.Other, false)
	return b
}

// Sort orders by rank priority in the given domain, then surname. Equal keys
// keep encounter order.
func (a Aggregator) Sort(names []internal.ParsedName, staff bool) {
	slices.SortStableFunc(names, func(x, y internal.ParsedName) int {
		if c := cmp.Compare(a.ranks.Priority(x.Rank, staff), a.ranks.Priority(y.Rank, staff)); c != 0 {
			return c
		}
		return cmp.Compare(x.Surname, y.Surname)
	})
}

// Count derives the statistics from the same deduplicated names that make up
// the roll, keyed by the schema's own section labels.
func (a Aggregator) Count(b Buckets, skipped int) internal.Statistics {
	stats := internal.Statistics{
		Sections:      append([]string{}, a.schema.Sections...),
		SectionCounts: make(map[string]int, len(a.schema.Sections)),
		SkippedCount:  skipped,
	}
	for _, label := range a.schema.Sections {
		stats.SectionCounts[label] = 0
	}

	for _, n := range b.Ordered() {
		stats.SectionCounts[n.Section]++
		if n.Rank == ranks.Unknown {
			stats.UnknownCount++
		}
	}

	stats.StaffCount = len(b.Staff)
	stats.CadetCount = len(b.Executive) + len(b.Other)
	stats.TotalCount = b.Len()
	if a.schema.OverflowSection != "" {
		stats.UnlistedCount = stats.SectionCounts[a.schema.OverflowSection]
	}

	stats.Groups = make([]internal.GroupCount, 0, len(a.schema.Groups))
	for _, g := range a.schema.Groups {
		total := 0
		for _, label := range g.Sections {
			total += stats.SectionCounts[label]
		}
		stats.Groups = append(stats.Groups, internal.GroupCount{Name: g.Name, Count: total})
	}
	return stats
}
