package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fincal/internal/models"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer   io.Writer
	jsonMode bool

	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
	bold    *color.Color
	dim     *color.Color
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	noColor := jsonMode || !isTerminal()
	return &Output{
		writer:   cmd.OutOrStdout(),
		jsonMode: jsonMode,
		success:  newColor(color.FgGreen, noColor),
		failure:  newColor(color.FgRed, noColor),
		warning:  newColor(color.FgYellow, noColor),
		info:     newColor(color.FgCyan, noColor),
		bold:     newColor(color.Bold, noColor),
		dim:      newColor(color.Faint, noColor),
	}
}

func newColor(attr color.Attribute, disabled bool) *color.Color {
	c := color.New(attr)
	if disabled {
		c.DisableColor()
	}
	return c
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.success.Fprintf(o.writer, format+"\n", args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.failure.Fprintf(o.writer, format+"\n", args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.warning.Fprintf(o.writer, format+"\n", args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.info.Fprintf(o.writer, format+"\n", args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.bold.Fprintf(o.writer, format+"\n", args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.dim.Fprintf(o.writer, format+"\n", args...)
}

// CategoryLabel renders an event category with its color.
func (o *Output) CategoryLabel(cat models.EventCategory) string {
	switch cat {
	case models.CategoryEarnings:
		return o.info.Sprint(cat)
	case models.CategoryEconomic:
		return o.warning.Sprint(cat)
	case models.CategoryCrypto:
		return o.success.Sprint(cat)
	case models.CategoryPriceChange:
		return o.failure.Sprint(cat)
	default:
		return string(cat)
	}
}

// CertaintyLabel renders an event certainty with its color: confirmed dates
// green, estimated yellow, unknown dimmed.
func (o *Output) CertaintyLabel(c models.Certainty) string {
	switch c {
	case models.CertaintyConfirmed:
		return o.success.Sprint(c)
	case models.CertaintyEstimated:
		return o.warning.Sprint(c)
	default:
		return o.dim.Sprint(c)
	}
}
