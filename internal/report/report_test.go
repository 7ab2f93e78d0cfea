package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rolls/internal"
	"rolls/internal/pipeline"
	"rolls/internal/storage"
)

func sample() pipeline.FileResult {
	a := internal.OutputRecord{Rank: "CDT", Surname: "Bloggs", FirstName: "Joe", FullName: "CDT Joe Bloggs", Section: "Flight 1"}
	b := internal.OutputRecord{Rank: "CDT", Surname: "Bloggs", FirstName: "Jo", FullName: "CDT Jo Bloggs", Section: "Flight 2"}
	return pipeline.FileResult{
		Source: "attendance.csv",
		Schema: "attendance4",
		Day:    "2025-03-11",
		Result: internal.Result{
			Records: []internal.OutputRecord{
				{Rank: "FLTLT", Surname: "Hart", FirstName: "Ben", FullName: "FLTLT Ben Hart", Section: "Staff & Executives"},
				a, b,
				{Rank: "UNKNOWN", Surname: "Ray", FullName: "XYZ Ray", Section: "Unlisted"},
			},
			Stats: internal.Statistics{
				Sections:      []string{"Staff & Executives", "Flight 1", "Flight 2", "Unlisted"},
				SectionCounts: map[string]int{"Staff & Executives": 1, "Flight 1": 1, "Flight 2": 1, "Unlisted": 1},
				Groups:        []internal.GroupCount{{Name: "Flight 1", Count: 1}},
				StaffCount:    1,
				CadetCount:    3,
				TotalCount:    4,
				UnknownCount:  1,
				SkippedCount:  1,
			},
			Skipped: []internal.SkippedEntry{{Text: "Invalid Name", Section: "Flight 1", Reason: "no_rank"}},
		},
		NearDuplicates: []pipeline.NearDuplicate{{A: a, B: b, Score: 0.96}},
		CSVPath:        "out/attendance_2025-03-11.csv",
	}
}

func TestSummary(t *testing.T) {
	out := Summary(sample(), DefaultStyles())
	for _, want := range []string{
		"Roll 2025-03-11",
		"attendance4",
		"Staff & Executives",
		"Flight 1 (total)",
		"1 name(s) with unrecognised rank",
		"XYZ Ray",
		"Invalid Name",
		"no_rank",
		"CDT Joe Bloggs ~ CDT Jo Bloggs",
		"0.96",
		"csv: out/attendance_2025-03-11.csv",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "xlsx:")
}

func TestSummaryCleanRoll(t *testing.T) {
	res := sample()
	res.Result.Stats.UnknownCount = 0
	res.Result.Skipped = nil
	res.NearDuplicates = nil
	out := Summary(res, DefaultStyles())
	assert.NotContains(t, out, "unrecognised")
	assert.NotContains(t, out, "skipped")
	assert.NotContains(t, out, "duplicate")
}

func TestRecordsAndRuns(t *testing.T) {
	out := Records(sample().Result.Records, DefaultStyles())
	assert.Contains(t, out, "Source Column")
	assert.Contains(t, out, "FLTLT Ben Hart")

	assert.Contains(t, Runs(nil, DefaultStyles()), "no recorded runs")
	runs := Runs([]storage.RunRow{{ID: 7, RollDate: "2025-03-11", Schema: "attendance4", Source: "attendance.csv", Mode: "strict"}}, DefaultStyles())
	assert.Contains(t, runs, "2025-03-11")
	assert.Contains(t, runs, "strict")
}

func TestMail(t *testing.T) {
	assert.Contains(t, Mail(nil, DefaultStyles()), "no fetched mail")
	out := Mail([]storage.MailRow{{Provider: "imap", Subject: "Parade roll", Status: "no_roster"}}, DefaultStyles())
	assert.Contains(t, out, "Parade roll")
	assert.Contains(t, out, "no_roster")
}
