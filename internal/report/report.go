// Package report renders processed rolls and the run log for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"rolls/internal"
	"rolls/internal/pipeline"
	"rolls/internal/ranks"
	"rolls/internal/storage"
)

var (
	Warning = lipgloss.Color("#FFC107")
	Muted   = lipgloss.Color("#6b7280")
	Accent  = lipgloss.Color("#8BC34A")
)

type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Warn   lipgloss.Style
	Muted  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(Warning),
		Muted:  lipgloss.NewStyle().Foreground(Muted),
	}
}

func (s Styles) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Muted).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		})
}

// Summary renders the statistics of one processed roll followed by the
// entries that need a human look.
func Summary(res pipeline.FileResult, styles Styles) string {
	var sb strings.Builder
	stats := res.Result.Stats

	sb.WriteString(styles.Title.Render(fmt.Sprintf("Roll %s", res.Day)))
	sb.WriteString(styles.Muted.Render(fmt.Sprintf("  %s, schema %s", res.Source, res.Schema)))
	sb.WriteString("\n")

	totals := styles.table("Staff", "Cadets", "Total").
		Row(strconv.Itoa(stats.StaffCount), strconv.Itoa(stats.CadetCount), strconv.Itoa(stats.TotalCount))
	sb.WriteString(totals.String())
	sb.WriteString("\n")

	sections := styles.table("Section", "Count")
	for _, label := range stats.Sections {
		sections.Row(label, strconv.Itoa(stats.SectionCounts[label]))
	}
	for _, g := range stats.Groups {
		sections.Row(g.Name+" (total)", strconv.Itoa(g.Count))
	}
	sb.WriteString(sections.String())
	sb.WriteString("\n")

	if stats.UnknownCount > 0 {
		sb.WriteString(styles.Warn.Render(fmt.Sprintf("%d name(s) with unrecognised rank", stats.UnknownCount)))
		sb.WriteString("\n")
		for _, r := range res.Result.Records {
			if r.Rank == ranks.Unknown {
				sb.WriteString(fmt.Sprintf("  %s  %s\n", r.FullName, styles.Muted.Render(r.Section)))
			}
		}
	}

	if len(res.Result.Skipped) > 0 {
		sb.WriteString(styles.Warn.Render(fmt.Sprintf("%d entr(ies) skipped", len(res.Result.Skipped))))
		sb.WriteString("\n")
		for _, s := range res.Result.Skipped {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", s.Text, styles.Muted.Render(s.Section+", "+s.Reason)))
		}
	}

	if len(res.NearDuplicates) > 0 {
		sb.WriteString(styles.Warn.Render(fmt.Sprintf("%d possible duplicate(s)", len(res.NearDuplicates))))
		sb.WriteString("\n")
		for _, d := range res.NearDuplicates {
			sb.WriteString(fmt.Sprintf("  %s ~ %s  %s\n", d.A.FullName, d.B.FullName, styles.Muted.Render(fmt.Sprintf("%.2f", d.Score))))
		}
	}

	if res.CSVPath != "" {
		sb.WriteString(styles.Muted.Render("csv: " + res.CSVPath))
		sb.WriteString("\n")
	}
	if res.XLSXPath != "" {
		sb.WriteString(styles.Muted.Render("xlsx: " + res.XLSXPath))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Records renders a roll in output order.
func Records(records []internal.OutputRecord, styles Styles) string {
	t := styles.table(pipeline.RecordHeaders...)
	for _, r := range records {
		t.Row(r.Rank, r.Surname, r.FirstName, r.FullName, r.Section)
	}
	return t.String() + "\n"
}

// Runs renders the run log, newest first.
func Runs(runs []storage.RunRow, styles Styles) string {
	if len(runs) == 0 {
		return styles.Muted.Render("no recorded runs") + "\n"
	}
	t := styles.table("ID", "Date", "Schema", "Source", "Mode", "Total", "Unknown", "Skipped", "Recorded")
	for _, r := range runs {
		t.Row(
			strconv.Itoa(r.ID),
			r.RollDate,
			r.Schema,
			r.Source,
			r.Mode,
			strconv.Itoa(r.Counts.TotalCount),
			strconv.Itoa(r.Counts.UnknownCount),
			strconv.Itoa(r.Counts.SkippedCount),
			r.CreatedAt,
		)
	}
	return t.String() + "\n"
}

// Mail renders the fetched-mail log.
func Mail(rows []storage.MailRow, styles Styles) string {
	if len(rows) == 0 {
		return styles.Muted.Render("no fetched mail") + "\n"
	}
	t := styles.table("Provider", "Received", "From", "Subject", "Status")
	for _, m := range rows {
		t.Row(m.Provider, m.ReceivedAt, m.From, m.Subject, m.Status)
	}
	return t.String() + "\n"
}
