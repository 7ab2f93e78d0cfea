package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolls/internal"
	"rolls/internal/ranks"
	"rolls/internal/schema"
)

func mustSchema(t *testing.T, name string) schema.Schema {
	t.Helper()
	s, err := schema.NewRegistry().Get(name)
	require.NoError(t, err)
	return s
}

func mustProcessor(t *testing.T, name string, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(mustSchema(t, name), opts...)
	require.NoError(t, err)
	return p
}

// row builds an excel11 row: staff, execs, then the nine cadet sections.
func row(cells ...string) internal.Row {
	return internal.Row{Timestamp: "2025-03-04 18:30:00", Cells: cells}
}

func sumSections(stats internal.Statistics) int {
	total := 0
	for _, c := range stats.SectionCounts {
		total += c
	}
	return total
}

func bucketOf(r internal.OutputRecord, s schema.Schema) int {
	switch r.Section {
	case s.StaffSection:
		return 0
	case s.ExecutiveSection:
		return 1
	default:
		return 2
	}
}

func TestProcessEndToEndCounts(t *testing.T) {
	p := mustProcessor(t, schema.Excel11)

	staff := "SQNLDR Anderson (Alice); FLTLT Brown; WOFF Clark; SGT Davis; CPL Evans; LAC Ford; CIV Green"
	execs := "CUO Harris; CWOFF Irwin; CFSGT James; CSGT King; CCPL Lewis"
	batch := internal.Batch{Rows: []internal.Row{
		row(staff, execs, "CDT Moore; LCDT Nash", "CDT Owen", "CDT Price", "CDT Quinn", "CDT Reid", "CDT Shaw", "", "CDT Todd", "CDT Usher; CDT Vale"),
	}}

	res := p.Process(batch)
	require.Len(t, res.Records, 22)
	assert.Equal(t, 7, res.Stats.StaffCount)
	assert.Equal(t, 15, res.Stats.CadetCount)
	assert.Equal(t, 22, res.Stats.TotalCount)
	assert.Equal(t, 7, res.Stats.SectionCounts["Staff"])
	assert.Equal(t, 5, res.Stats.SectionCounts["Executives & Seniors"])
	assert.Equal(t, 22, sumSections(res.Stats))
	assert.Equal(t, 5, res.Stats.GroupCount("Flight 1"))
	assert.Equal(t, 3, res.Stats.GroupCount("Flight 2"))
	assert.Equal(t, 2, res.Stats.GroupCount("Zulu"))
	assert.Equal(t, 2, res.Stats.UnlistedCount)
	assert.Zero(t, res.Stats.UnknownCount)
	assert.Empty(t, res.Skipped)

	first := res.Records[0]
	assert.Equal(t, internal.OutputRecord{Rank: "SQNLDR", Surname: "Anderson", FirstName: "Alice", FullName: "SQNLDR Anderson (Alice)", Section: "Staff"}, first)
	assert.Equal(t, "CIV", res.Records[6].Rank)
	assert.Equal(t, "CUO", res.Records[7].Rank)
	assert.Equal(t, "LCDT", res.Records[12].Rank)
}

func TestProcessSortedWithinBuckets(t *testing.T) {
	s := mustSchema(t, schema.Excel11)
	p := mustProcessor(t, schema.Excel11)
	tables := ranks.Default()

	batch := internal.Batch{Rows: []internal.Row{
		row("CPL Zed; SQNLDR Young; CPL Adams; Mystery", "CDT Ward; CUO Zane; CUO Abbot", "CDT Bell; CUO Cox; Nobody"),
		row("SGT Baker", "", "", "", "", "", "", "", "", "", "CCPL Dunn, CCPL Earl"),
	}}
	res := p.Process(batch)
	require.NotEmpty(t, res.Records)

	for i := 1; i < len(res.Records); i++ {
		a, b := res.Records[i-1], res.Records[i]
		ba, bb := bucketOf(a, s), bucketOf(b, s)
		require.LessOrEqual(t, ba, bb, "bucket order at %d", i)
		if ba != bb {
			continue
		}
		staff := ba == 0
		pa, pb := tables.Priority(a.Rank, staff), tables.Priority(b.Rank, staff)
		require.LessOrEqual(t, pa, pb, "rank order at %d: %s %s", i, a.FullName, b.FullName)
		if pa == pb {
			require.LessOrEqual(t, a.Surname, b.Surname, "surname order at %d", i)
		}
	}

	names := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		names = append(names, r.FullName)
	}
	assert.Equal(t, []string{
		"SQNLDR Young", "SGT Baker", "CPL Adams", "CPL Zed", "UNKNOWN Mystery",
		"CUO Abbot", "CUO Zane", "CDT Ward",
		"CUO Cox", "CCPL Dunn, CCPL Earl", "CDT Bell", "UNKNOWN Nobody",
	}, names)
	assert.Equal(t, 2, res.Stats.UnknownCount)
	assert.Equal(t, res.Stats.TotalCount, sumSections(res.Stats))
}

func TestProcessCommaSectionSplit(t *testing.T) {
	p := mustProcessor(t, schema.Attendance4)
	res := p.Process(internal.Batch{Rows: []internal.Row{
		{Cells: []string{"", "", "", "CDT Dunn, CDT Earl; CDT Fox"}},
	}})
	assert.Equal(t, 3, res.Stats.UnlistedCount)
	assert.Equal(t, 3, res.Stats.GroupCount("Unlisted"))
}

func TestProcessExcelZuluKeepsCommas(t *testing.T) {
	p := mustProcessor(t, schema.Excel11)
	res := p.Process(internal.Batch{Rows: []internal.Row{
		row("", "", "", "", "", "", "", "", "", "", "CDT Brown, Jane"),
	}})
	require.Len(t, res.Records, 1)
	assert.Equal(t, internal.OutputRecord{Rank: "CDT", Surname: "Brown, Jane", FullName: "CDT Brown, Jane", Section: "Zulu"}, res.Records[0])
	assert.Equal(t, 1, res.Stats.TotalCount)
	assert.Equal(t, 1, res.Stats.SectionCounts["Zulu"])
	assert.Zero(t, res.Stats.UnknownCount)
}

func TestProcessFlight13UnlistedKeepsCommas(t *testing.T) {
	p := mustProcessor(t, schema.Flight13)
	cells := make([]string, 13)
	cells[12] = "CDT Dunn, CDT Earl; CDT Fox"
	res := p.Process(internal.Batch{Rows: []internal.Row{{Cells: cells}}})
	assert.Equal(t, 2, res.Stats.UnlistedCount)
}

func TestProcessDedupFirstSeenSectionWins(t *testing.T) {
	p := mustProcessor(t, schema.Excel11)
	batch := internal.Batch{Rows: []internal.Row{
		row("", "", "CDT Smith"),
		row("", "", "", "", "", "", "", "", "", "", "CDT Smith; CDT Jones"),
	}}
	res := p.Process(batch)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Alpha 1", res.Records[1].Section)
	assert.Equal(t, "CDT Smith", res.Records[1].FullName)
	assert.Equal(t, 1, res.Stats.SectionCounts["Alpha 1"])
	assert.Equal(t, 1, res.Stats.SectionCounts["Zulu"])
	assert.Equal(t, 2, sumSections(res.Stats))
}

func TestProcessMergedSectionSplitsByRank(t *testing.T) {
	p := mustProcessor(t, schema.Attendance4)
	batch := internal.Batch{Rows: []internal.Row{
		{Cells: []string{"CUO Amy Stone; FLTLT Ben Hart; CWOFF Cara Lim; SGT Dan Ng", "CDT Eve Park", "CDT Finn Roe", "CDT Gus Tan, CDT Hal Uy"}},
	}}
	res := p.Process(batch)
	require.Len(t, res.Records, 8)

	got := make([]string, 0, 4)
	for _, r := range res.Records[:4] {
		got = append(got, r.Rank+" "+r.Surname+"/"+r.FirstName)
	}
	assert.Equal(t, []string{"FLTLT Hart/Ben", "SGT Ng/Dan", "CUO Stone/Amy", "CWOFF Lim/Cara"}, got)
	assert.Equal(t, 2, res.Stats.StaffCount)
	assert.Equal(t, 6, res.Stats.CadetCount)
	assert.Equal(t, 4, res.Stats.SectionCounts["Staff & Executives"])
	assert.Equal(t, 2, res.Stats.UnlistedCount)
	assert.Equal(t, 1, res.Stats.GroupCount("Flight 1"))
}

func TestProcessEmptyBatch(t *testing.T) {
	for _, name := range []string{schema.Excel11, schema.Attendance4, schema.Flight13} {
		t.Run(name, func(t *testing.T) {
			p := mustProcessor(t, name)
			res := p.Process(internal.Batch{})
			assert.Empty(t, res.Records)
			assert.NotNil(t, res.Records)
			assert.Len(t, res.Stats.SectionCounts, len(p.schema.Sections))
			for label, c := range res.Stats.SectionCounts {
				assert.Zero(t, c, label)
			}
			for _, g := range res.Stats.Groups {
				assert.Zero(t, g.Count, g.Name)
			}
			assert.Zero(t, res.Stats.TotalCount)
		})
	}
}

func TestProcessShortAndWideRows(t *testing.T) {
	p := mustProcessor(t, schema.Excel11)
	batch := internal.Batch{Rows: []internal.Row{
		row("SGT Short"),
		row("", "", "", "", "", "", "", "", "", "", "CDT Last", "CDT Ignored"),
	}}
	res := p.Process(batch)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "SGT Short", res.Records[0].FullName)
	assert.Equal(t, "Zulu", res.Records[1].Section)
}

func TestProcessStrictSkips(t *testing.T) {
	lenientRes := mustProcessor(t, schema.Excel11).Process(internal.Batch{Rows: []internal.Row{
		row("SGT Smith; Jones", "", "Invalid Name; XYZ Brown"),
	}})
	assert.Len(t, lenientRes.Records, 4)
	assert.Empty(t, lenientRes.Skipped)

	strict := mustProcessor(t, schema.Excel11, WithMode(ModeStrict))
	res := strict.Process(internal.Batch{Rows: []internal.Row{
		row("SGT Smith; Jones", "", "Invalid Name; XYZ Brown"),
	}})
	require.Len(t, res.Records, 2)
	assert.Equal(t, "UNKNOWN XYZ Brown", res.Records[1].FullName)
	assert.Equal(t, []internal.SkippedEntry{
		{Text: "Jones", Section: "Staff", Reason: "no_rank"},
		{Text: "Invalid Name", Section: "Alpha 1", Reason: "no_rank"},
	}, res.Skipped)
	assert.Equal(t, 2, res.Stats.SkippedCount)
	assert.Equal(t, res.Stats.TotalCount, sumSections(res.Stats))
}

func TestProcessCustomRanks(t *testing.T) {
	tables := ranks.Tables{
		Staff:    []string{"CAPT", "LT"},
		Cadet:    []string{"SNR", "JNR", ranks.Unknown},
		Sentinel: ranks.Unknown,
	}
	p := mustProcessor(t, schema.Excel11, WithRanks(tables))
	res := p.Process(internal.Batch{Rows: []internal.Row{row("LT Abel; CAPT Zorn; SGT Old")}})
	require.Len(t, res.Records, 3)
	assert.Equal(t, "CAPT", res.Records[0].Rank)
	assert.Equal(t, "LT", res.Records[1].Rank)
	assert.Equal(t, "UNKNOWN", res.Records[2].Rank)
}

func TestNewProcessorRejectsInvalidConfig(t *testing.T) {
	_, err := NewProcessor(schema.Schema{Name: "empty"})
	assert.Error(t, err)

	bad := ranks.Default()
	bad.Sentinel = "NONE"
	_, err = NewProcessor(mustSchema(t, schema.Excel11), WithRanks(bad))
	assert.Error(t, err)
}

func TestProcessConcurrentUse(t *testing.T) {
	p := mustProcessor(t, schema.Excel11)
	var wg sync.WaitGroup
	results := make([]internal.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Process(internal.Batch{Rows: []internal.Row{
				row(fmt.Sprintf("SGT Worker%d", i), "CUO Lead", "CDT Alpha"),
			}})
		}(i)
	}
	wg.Wait()
	for i, res := range results {
		assert.Equal(t, 3, res.Stats.TotalCount, i)
		assert.Equal(t, fmt.Sprintf("SGT Worker%d", i), res.Records[0].FullName)
	}
}
