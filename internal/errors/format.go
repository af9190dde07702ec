package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format returns a formatted error message for terminal display.
func (e *ChronoError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
	} else {
		b.WriteString(red(bold("ERROR: ")))
	}
	b.WriteString(white(e.Message))
	b.WriteString("\n\n")

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(e.Fields) > 0 {
		b.WriteString("  ")
		b.WriteString(gray("Missing: "))
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString("\n\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *ChronoError) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Payload is the wire form of a ChronoError.
type Payload struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Payload returns the wire form of the error. The wrapped cause is not exposed.
func (e *ChronoError) Payload() Payload {
	return Payload{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Fields:     e.Fields,
		Suggestion: e.Suggestion,
	}
}

// FormatJSON returns the error as a JSON object.
func (e *ChronoError) FormatJSON() string {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to w.
func PrintError(w io.Writer, err error) {
	var ce *ChronoError
	if errors.As(err, &ce) {
		fmt.Fprint(w, ce.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}
