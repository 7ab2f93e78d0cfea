package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"rolls/internal/util"
)

var ErrNoRoster = errors.New("no roster table found")

// Sheet is a raw export: the header row and every data row below it, cells
// as text. Rows may be ragged.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

func ReadFile(path string) (Sheet, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, err
	}
	return Read(filepath.Base(path), blob)
}

// Read dispatches on the file name extension.
func Read(name string, content []byte) (Sheet, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSX(content)
	case strings.HasSuffix(lower, ".csv"):
		return ReadCSV(bytes.NewReader(content))
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return ReadHTML(bytes.NewReader(content))
	case strings.HasSuffix(lower, ".eml"):
		return ReadEML(content)
	default:
		return Sheet{}, fmt.Errorf("unsupported input type: %s", filepath.Ext(name))
	}
}

// ReadXLSX reads the first non-empty worksheet. Cells are raw values so the
// timestamp column keeps its Excel serial.
func ReadXLSX(content []byte) (Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return Sheet{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}
		return toSheet(sheet, rows), nil
	}
	return Sheet{}, ErrNoRoster
}

func ReadCSV(r io.Reader) (Sheet, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return Sheet{}, ErrNoRoster
	}
	return toSheet("csv", rows), nil
}

// ReadHTML takes the first table with a header and at least one data row.
func ReadHTML(r io.Reader) (Sheet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("parse html: %w", err)
	}

	var out *Sheet
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		trs := table.Find("tr")
		if trs.Length() < 2 {
			return true
		}
		rows := [][]string{}
		trs.Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			rows = append(rows, cells)
		})
		s := toSheet(fmt.Sprintf("table%d", i+1), rows)
		out = &s
		return false
	})
	if out == nil {
		return Sheet{}, ErrNoRoster
	}
	return *out, nil
}

// ReadEML pulls the roster out of a saved message: the first spreadsheet or
// CSV attachment, else the first HTML table in the body.
func ReadEML(content []byte) (Sheet, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(content))
	if err != nil {
		return Sheet{}, fmt.Errorf("read message: %w", err)
	}

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		lower := strings.ToLower(filename)
		if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".csv") {
			sheet, err := Read(filename, att.Content)
			if err != nil {
				return Sheet{}, fmt.Errorf("attachment %s: %w", filename, err)
			}
			sheet.Name = filename
			return sheet, nil
		}
	}
	if env.HTML != "" {
		return ReadHTML(strings.NewReader(env.HTML))
	}
	return Sheet{}, ErrNoRoster
}

func toSheet(name string, rows [][]string) Sheet {
	s := Sheet{Name: name, Header: rows[0]}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func skipBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}
