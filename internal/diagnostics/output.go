package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// JSONOutput represents the JSON structure for diagnostic output
type JSONOutput struct {
	Status      string       `json:"status"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     Summary      `json:"summary"`
}

// Summary contains error and warning counts
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// Summarize counts the diagnostics by severity.
func Summarize(diags []Diagnostic) Summary {
	s := Summary{TotalCount: len(diags)}
	for _, d := range diags {
		if d.IsError() {
			s.ErrorCount++
		} else if d.IsWarning() {
			s.WarningCount++
		}
	}
	return s
}

// Status returns "error", "warning" or "success".
func (s Summary) Status() string {
	switch {
	case s.ErrorCount > 0:
		return "error"
	case s.WarningCount > 0:
		return "warning"
	default:
		return "success"
	}
}

// FormatJSON formats diagnostics with their summary as indented JSON.
func FormatJSON(diags []Diagnostic) (string, error) {
	if diags == nil {
		diags = []Diagnostic{}
	}
	summary := Summarize(diags)
	output := JSONOutput{
		Status:      summary.Status(),
		Diagnostics: diags,
		Summary:     summary,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TerminalOptions configures terminal rendering
type TerminalOptions struct {
	NoColor bool
}

// WriteTerminal renders diagnostics for a terminal, followed by a summary line.
//
// Example output:
//
//	error: overriding method must not alter the cascading of com.acme.Base
//	  --> com.acme.Sub#validate() [OVERRIDING_METHOD_MUST_NOT_ALTER_CASCADING]
func WriteTerminal(w io.Writer, diags []Diagnostic, opts TerminalOptions) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if opts.NoColor {
		cyan.DisableColor()
		gray.DisableColor()
	}

	for _, d := range diags {
		header := severityColor(d.Severity)
		if opts.NoColor {
			header.DisableColor()
		}
		header.Fprintf(w, "%s", d.Severity)
		fmt.Fprintf(w, ": %s\n", d.Message())

		fmt.Fprint(w, "  ")
		cyan.Fprint(w, "-->")
		fmt.Fprintf(w, " %s ", d.Method)
		gray.Fprintf(w, "[%s]\n", d.MessageKey)
	}

	fmt.Fprint(w, FormatSummary(Summarize(diags), opts.NoColor))
}

// FormatSummary formats a summary of errors and warnings
func FormatSummary(s Summary, noColor bool) string {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen, color.Bold)
	bold := color.New(color.Bold)
	if noColor {
		red.DisableColor()
		yellow.DisableColor()
		green.DisableColor()
		bold.DisableColor()
	}

	var parts []string
	if s.ErrorCount > 0 {
		parts = append(parts, red.Sprintf("%d error(s)", s.ErrorCount))
	}
	if s.WarningCount > 0 {
		parts = append(parts, yellow.Sprintf("%d warning(s)", s.WarningCount))
	}

	if len(parts) == 0 {
		return green.Sprint("✓ No override violations found") + "\n"
	}
	return "\n" + bold.Sprint("Check failed with ") + strings.Join(parts, " and ") + "\n"
}

func severityColor(s Severity) *color.Color {
	switch s {
	case Info:
		return color.New(color.FgBlue, color.Bold)
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
