package summary

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lehigh-university-libraries/roofprep/internal/manifest"
)

const ruleWidth = 70

// Align is a column alignment for RenderTable.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// RenderTable draws rows under headers with rounded borders. Short rows are
// padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Print writes a human-readable run summary.
func (r *Run) Print(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "ROOFPREP %s SUMMARY\n", strings.ToUpper(r.Command))
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "Run ID:      %s\n", r.ID)
	fmt.Fprintf(w, "Dataset:     %s\n", r.DatasetDir)
	if r.Output != "" {
		fmt.Fprintf(w, "Output:      %s\n", r.Output)
	}
	if r.DryRun {
		fmt.Fprintln(w, "Mode:        dry run")
	}
	fmt.Fprintf(w, "Duration:    %s\n", r.Duration)
	fmt.Fprintf(w, "Scanned:     %d\n", r.Scanned)
	fmt.Fprintf(w, "Written:     %d\n", r.Written)
	if r.Moved > 0 || r.Command == "verify" || r.Command == "restore" {
		fmt.Fprintf(w, "Moved:       %d\n", r.Moved)
	}
	fmt.Fprintf(w, "Skipped:     %d\n", r.SkippedTotal())

	if len(r.Skipped) > 0 {
		rows := make([][]string, 0, len(r.Skipped))
		for _, reason := range r.SkipReasons() {
			rows = append(rows, []string{reason, strconv.Itoa(r.Skipped[reason])})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, RenderTable([]string{"Skip reason", "Images"}, rows, []Align{AlignLeft, AlignRight}))
	}

	if r.Stats != nil {
		fmt.Fprintln(w)
		PrintAvailability(w, *r.Stats)
	}
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

// PrintAvailability writes the record count and how many records carry each
// optional attribute.
func PrintAvailability(w io.Writer, s manifest.Stats) {
	fmt.Fprintf(w, "Total records: %d\n", s.Total)
	rows := make([][]string, 0, len(s.Availability))
	for _, a := range s.Availability {
		rows = append(rows, []string{
			a.Column,
			fmt.Sprintf("%d/%d", a.Count, s.Total),
			fmt.Sprintf("%.2f%%", a.Percent),
		})
	}
	fmt.Fprintln(w, RenderTable([]string{"Attribute", "Available", "Percent"}, rows, []Align{AlignLeft, AlignRight, AlignRight}))
}

// PrintStats writes availability plus the split, material and continent
// breakdowns.
func PrintStats(w io.Writer, s manifest.Stats) {
	PrintAvailability(w, s)
	for _, group := range []struct {
		title  string
		counts []manifest.Count
	}{
		{"Split", s.BySplit},
		{"Material", s.ByMaterial},
		{"Continent", s.ByContinent},
	} {
		rows := make([][]string, 0, len(group.counts))
		for _, c := range group.counts {
			rows = append(rows, []string{c.Key, strconv.Itoa(c.Count)})
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, RenderTable([]string{group.title, "Images"}, rows, []Align{AlignLeft, AlignRight}))
	}
}
