package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/ops"
)

// out receives all human-readable command output. Tests swap it.
var out io.Writer = os.Stdout

var defaultOut = out

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, additions
	colorYellow = lipgloss.Color("220") // Amber - warnings, updates
	colorRed    = lipgloss.Color("167") // Soft red - errors, removals
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleAdded   = lipgloss.NewStyle().Foreground(colorGreen)
	styleUpdated = lipgloss.NewStyle().Foreground(colorYellow)
	styleRemoved = lipgloss.NewStyle().Foreground(colorRed)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconAdded   = "+"
	iconUpdated = "~"
	iconRemoved = "-"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(out)
}

// =============================================================================
// Graph Output
// =============================================================================

// printStats prints node and edge counts on a single dimmed line.
func printStats(nodes, edges int, extra ...string) {
	parts := append([]string{
		fmt.Sprintf("%d nodes", nodes),
		fmt.Sprintf("%d edges", edges),
	}, extra...)

	styled := make([]string, len(parts))
	for i, p := range parts {
		styled[i] = StyleDim.Render(p)
	}
	fmt.Fprintln(out, "  "+strings.Join(styled, StyleDim.Render(" · ")))
}

// changeStyle returns the icon and style for a change type.
func changeStyle(t diff.Type) (string, lipgloss.Style) {
	switch t {
	case diff.NodeAdded, diff.EdgeAdded:
		return iconAdded, styleAdded
	case diff.NodeRemoved, diff.EdgeRemoved:
		return iconRemoved, styleRemoved
	default:
		return iconUpdated, styleUpdated
	}
}

// printChanges prints one line per change, followed by field details.
func printChanges(changes []diff.Result) {
	if len(changes) == 0 {
		printInfo("No changes")
		return
	}
	for _, c := range changes {
		icon, style := changeStyle(c.Type)
		fmt.Fprintf(out, "  %s %-13s %s\n", style.Render(icon), StyleDim.Render(string(c.Type)), StyleValue.Render(c.ID))
		for _, fc := range c.Details {
			printDetail("    %s: %s %s %s", fc.Field, formatValue(fc.Before), iconArrow, formatValue(fc.After))
		}
	}
}

// printSummary prints change counts per type, e.g. "2 node-added · 1 edge-removed".
func printSummary(changes []diff.Result) {
	counts := diff.Summary(changes)
	var parts []string
	for _, t := range diff.Types {
		if n := counts[t]; n > 0 {
			_, style := changeStyle(t)
			parts = append(parts, style.Render(fmt.Sprintf("%d %s", n, t)))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintln(out, "  "+strings.Join(parts, StyleDim.Render(" · ")))
	}
}

func printWarnings(warnings []ops.Warning) {
	for _, w := range warnings {
		printWarning("%s", w.String())
	}
}

func formatValue(v any) string {
	if v == nil {
		return "∅"
	}
	return fmt.Sprintf("%v", v)
}
