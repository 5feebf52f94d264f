package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/resolver"
	"github.com/matzehuels/haven/pkg/storage"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// statusOut receives status lines. Results go to the command's stdout so
// that JSON and DOT output stay pipeable.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output path.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints run statistics on one line, e.g.
// "12 resolved · 3 skipped · cached".
func printStats(resolved, skipped int, cached bool) {
	parts := []string{fmt.Sprintf("%d resolved", resolved)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}

	line := "  "
	for i, p := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(p)
	}
	fmt.Fprintln(statusOut, line+StyleDim.Render(" · ")+status)
}

// =============================================================================
// Results
// =============================================================================

// writeOutcomeText prints the resolved set, one coordinate per line, then
// conflicts and failures.
func writeOutcomeText(w io.Writer, out *resolver.Outcome) {
	fmt.Fprintln(w, StyleTitle.Render(out.Root.String()))
	for _, d := range out.Resolved {
		line := "  " + d.Coordinate.String()
		if extra := describe(d.Type, d.Scope()); extra != "" {
			line += " " + StyleDim.Render(extra)
		}
		fmt.Fprintln(w, line)
	}
	if len(out.Conflicts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleWarning.Render("conflicts"))
		for _, c := range out.Conflicts {
			fmt.Fprintf(w, "  %s: kept %s, ignored %s\n",
				c.Kept.Key(), c.Kept.Version(), c.Discarded.Version())
		}
	}
	if len(out.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleError.Render("failures"))
		for _, f := range out.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Coordinate, f.Message)
		}
	}
}

func describe(typ, scope string) string {
	var parts []string
	if typ != "" && typ != "jar" {
		parts = append(parts, typ)
	}
	if scope != "compile" {
		parts = append(parts, scope)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// writeLibrariesText prints one "coordinate  path" line per library.
func writeLibrariesText(w io.Writer, libs []storage.Library) {
	for _, l := range libs {
		state := styleComputed.Render(iconFresh)
		if l.Cached {
			state = styleCached.Render(iconCached)
		}
		fmt.Fprintf(w, "%s %s %s\n", l.Coordinate, StyleDim.Render(l.Path), state)
	}
}

// ReportError prints err as a status line, using its user-facing message.
func ReportError(err error) {
	printError("%s", errors.UserMessage(err))
}
