// File: cmd/tables.go
package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/reporting/store"
	"github.com/xkilldash9x/steadyhand/internal/suite"
)

// maxErrorColumn bounds the error column so one failure cannot blow up the table.
const maxErrorColumn = 120

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

func statusText(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > maxErrorColumn {
		s = s[:maxErrorColumn-3] + "..."
	}
	return s
}

// renderOutcomes prints one row per final outcome and a pass/fail footer.
func renderOutcomes(w io.Writer, uniqueID string, outcomes []schemas.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run %s", uniqueID)
	t.AppendHeader(table.Row{"Test", "Status", "Attempts", "Duration", "Session", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: maxErrorColumn, WidthMaxEnforcer: text.WrapSoft},
	})

	var passed, failed int
	var total time.Duration
	for _, o := range outcomes {
		if o.Passed {
			passed++
		} else {
			failed++
		}
		total += o.Duration
		t.AppendRow(table.Row{
			o.Descriptor.Name(),
			statusText(o.Passed),
			o.Attempts,
			formatDuration(o.Duration),
			o.SessionID,
			firstLine(o.ErrorMessage()),
		})
	}

	switch {
	case failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case len(outcomes) == 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tests", len(outcomes)),
		fmt.Sprintf("%d passed, %d failed", passed, failed),
		"",
		formatDuration(total),
		"",
		"",
	})
	t.Render()
}

// renderDescriptors prints the discovery result of one suite.
func renderDescriptors(w io.Writer, suiteName string, descriptors []schemas.TestDescriptor) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Suite %s", suiteName)
	t.AppendHeader(table.Row{"#", "Method", "Markers", "Runs"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
	})
	runnable := 0
	for _, d := range descriptors {
		runs := "no"
		if suite.IsValid(d) {
			runs = "yes"
			runnable++
		}
		t.AppendRow(table.Row{d.Index, d.Method, d.Markers.String(), runs})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d discovered", len(descriptors)), "", fmt.Sprintf("%d runnable", runnable)})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// renderHistory prints stored outcome rows.
func renderHistory(w io.Writer, uniqueID string, rows []store.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("History for run %s", uniqueID)
	t.AppendHeader(table.Row{"Finished", "Test", "Status", "Attempts", "Duration", "Session", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.FinishedAt.UTC().Format(time.RFC3339),
			r.Suite + "." + r.Method,
			statusText(r.Passed),
			r.Attempts,
			formatDuration(time.Duration(r.DurationMS) * time.Millisecond),
			r.SessionID,
			firstLine(r.Error),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
