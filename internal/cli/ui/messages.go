package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// MessageLevel represents the severity of a message
type MessageLevel int

const (
	LevelError MessageLevel = iota
	LevelWarning
	LevelInfo
)

// MessageOptions configures message formatting
type MessageOptions struct {
	Level        MessageLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatMessage creates a message with optional suggestions and help commands
//
// Example output:
//
//	❌ TYPE NOT FOUND: Cannot find type 'acme.Persn'.
//
//	   Did you mean: acme.Person?
//
//	   → List types: beanmeta describe --all
func FormatMessage(opts MessageOptions) string {
	var b strings.Builder

	var header *color.Color
	var symbol string
	switch opts.Level {
	case LevelWarning:
		header = color.New(color.FgYellow, color.Bold)
		symbol = "⚠️"
	case LevelInfo:
		header = color.New(color.FgCyan, color.Bold)
		symbol = "ℹ️"
	default:
		header = color.New(color.FgRed, color.Bold)
		symbol = "❌"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		header.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// TypeNotFound formats the message for an unknown type name
func TypeNotFound(name string, suggestions []string, noColor bool) string {
	return FormatMessage(MessageOptions{
		Level:       LevelError,
		Context:     "type not found",
		Problem:     fmt.Sprintf("Cannot find type '%s'.", name),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List types: beanmeta describe --all",
		},
		NoColor: noColor,
	})
}

// ConfigurationProblem formats the message for a configuration error
func ConfigurationProblem(err error, noColor bool) string {
	return FormatMessage(MessageOptions{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		HelpCommands: []string{
			"View config: cat beanmeta.yaml",
			"Get help: beanmeta --help",
		},
		NoColor: noColor,
	})
}
