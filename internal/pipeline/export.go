package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rolls/internal"
)

const (
	rollSheet  = "Roll"
	statsSheet = "Statistics"
)

var RecordHeaders = []string{"Rank", "Surname", "First Name", "Full Name", "Source Column"}

func recordRow(r internal.OutputRecord) []string {
	return []string{r.Rank, r.Surname, r.FirstName, r.FullName, r.Section}
}

func WriteCSV(w io.Writer, records []internal.OutputRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeaders); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportRecordsToCSV(records []internal.OutputRecord, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ExportResultToXLSX writes the roll and a statistics sheet.
func ExportResultToXLSX(result internal.Result, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), rollSheet); err != nil {
		return err
	}
	for i, h := range RecordHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(rollSheet, cell, h)
	}
	for i, rec := range result.Records {
		for c, v := range recordRow(rec) {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			_ = f.SetCellValue(rollSheet, cell, v)
		}
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return err
	}
	r := 0
	set := func(label string, value any) {
		r++
		a, _ := excelize.CoordinatesToCellName(1, r)
		b, _ := excelize.CoordinatesToCellName(2, r)
		_ = f.SetCellValue(statsSheet, a, label)
		_ = f.SetCellValue(statsSheet, b, value)
	}

	stats := result.Stats
	set("Total Personnel", stats.TotalCount)
	set("Staff", stats.StaffCount)
	set("Cadets", stats.CadetCount)
	set("Unlisted", stats.UnlistedCount)
	set("Unknown Rank", stats.UnknownCount)
	set("Skipped", stats.SkippedCount)
	for _, g := range stats.Groups {
		set(g.Name+" Total", g.Count)
	}
	for _, label := range stats.Sections {
		set(label, stats.SectionCounts[label])
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
