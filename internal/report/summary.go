package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/menta2k/image-cutout/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Banner describes a run before it starts.
type Banner struct {
	InputRoot  string
	OutputRoot string
	CropBox    types.CropBox
	Backend    string
	Mode       string
	Device     string
}

// RenderBanner writes the run parameters as a two-column table.
func RenderBanner(w io.Writer, b Banner) error {
	rows := [][]string{
		{"Input", b.InputRoot},
		{"Output", b.OutputRoot},
		{"Crop box", fmt.Sprintf("%s  %dx%d", b.CropBox, b.CropBox.Width(), b.CropBox.Height())},
		{"Matting", fmt.Sprintf("%s (mode %s, device %s)", b.Backend, b.Mode, b.Device)},
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"Setting", "Value"}, rows, nil))
	return err
}

// RenderSummary writes the run totals and, if any, the failure list.
func RenderSummary(w io.Writer, s *types.RunSummary) error {
	status := "complete"
	if s.Interrupted {
		status = "interrupted"
	}
	rows := [][]string{
		{"Status", status},
		{"Discovered", strconv.Itoa(s.Discovered)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Succeeded", strconv.Itoa(s.Succeeded)},
		{"Failed", strconv.Itoa(s.Failed())},
		{"Device", valueOrDash(s.Device)},
		{"Written", humanize.Bytes(uint64(max(s.BytesWritten, 0)))},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Output", valueOrDash(s.OutputRoot)},
	}
	var b strings.Builder
	b.WriteString(renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteByte('\n')

	if len(s.Failures) > 0 {
		failRows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			failRows = append(failRows, []string{f.RelPath, string(f.Stage), f.Cause})
		}
		b.WriteString(renderTable([]string{"Failed file", "Stage", "Cause"}, failRows, nil))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
