// Package output renders dispatch traces, application registry listings,
// and scenario report summaries as terminal tables using go-pretty
// (rounded borders, colored headers).
package output

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/keyfirmware/apdudispatch/dictionary"
	"github.com/keyfirmware/apdudispatch/harness"
	"github.com/keyfirmware/apdudispatch/scenario"
)

// Color styles for table headers and status text.
var (
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintSuccess prints a success line in green.
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprint("✓ " + msg))
}

// PrintError prints an error line in red.
func PrintError(msg string) {
	fmt.Println(colorError.Sprint("✗ " + msg))
}

// PrintWarning prints a warning line in yellow.
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprint("! " + msg))
}

// PrintScriptSteps renders a scenario.Run trace: one row per executed
// line, request/response hex, and any error.
func PrintScriptSteps(steps []scenario.Step) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SCRIPT TRACE")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel},
		{Number: 2, Colors: colorValue},
	})
	t.AppendHeader(table.Row{"Line", "Interface", "Request", "Response", "Error"})
	for _, s := range steps {
		errText := ""
		if s.Err != nil {
			errText = colorError.Sprint(s.Err.Error())
		}
		t.AppendRow(table.Row{
			s.Line,
			s.Iface,
			hexUpper(s.Request),
			hexUpper(s.Response),
			errText,
		})
	}
	t.Render()
}

// AppEntry is the minimal description PrintRegistry needs from a resident
// application; kept separate from dispatch.Application so output does not
// need to import application implementations.
type AppEntry struct {
	AID []byte
}

// PrintRegistry renders an application listing: AID and its dictionary
// label, if any is known.
func PrintRegistry(entries []AppEntry) {
	fmt.Println()
	t := newTable()
	t.SetTitle("APPLICATION REGISTRY")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 20},
		{Number: 2, Colors: colorValue, WidthMin: 30},
	})
	t.AppendHeader(table.Row{"AID", "Label"})
	for _, e := range entries {
		label, ok := dictionary.Lookup(e.AID)
		if !ok {
			label = "(unknown)"
		}
		t.AppendRow(table.Row{hexUpper(e.AID), label})
	}
	t.Render()
}

// PrintScenarioSummary renders a harness.TestSummary's pass/fail counts to
// the terminal, ahead of writing the JSON/HTML report to disk.
func PrintScenarioSummary(s harness.TestSummary) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SCENARIO SUMMARY")
	t.AppendHeader(table.Row{"Total", "Passed", "Failed", "Pass Rate"})
	t.AppendRow(table.Row{s.Total, s.Passed, s.Failed, fmt.Sprintf("%.1f%%", s.PassRate)})
	t.Render()

	if len(s.FailedTests) > 0 {
		fmt.Println()
		ft := newTable()
		ft.SetTitle("FAILED SCENARIOS")
		ft.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Colors: colorError}})
		for _, name := range s.FailedTests {
			ft.AppendRow(table.Row{name})
		}
		ft.Render()
	}
}

// PrintResults renders every harness.TestResult in detail: category, name,
// pass/fail, APDU/response hex and spec reference.
func PrintResults(results []harness.TestResult) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SCENARIO RESULTS")
	t.AppendHeader(table.Row{"Status", "Category", "Scenario", "APDU", "Response", "Spec"})
	for _, r := range results {
		status := colorSuccess.Sprint("PASS")
		if !r.Passed {
			status = colorError.Sprint("FAIL")
		}
		t.AppendRow(table.Row{status, r.Category, r.Name, r.APDU, r.Response, r.Spec})
	}
	t.Render()
}

func hexUpper(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0F]
	}
	return string(out)
}
