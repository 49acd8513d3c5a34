// Package console prints leveled messages, tables and run summaries to the
// terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Level is a console verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Unknown
// values mean LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Predefined colors for consistent use.
var (
	BrightGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Console writes leveled messages through pterm prefix printers. It is safe
// for concurrent use; each message or table is written whole.
type Console struct {
	level Level

	mu  sync.Mutex
	out io.Writer

	debug   *pterm.PrefixPrinter
	info    *pterm.PrefixPrinter
	warn    *pterm.PrefixPrinter
	err     *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
}

// New creates a Console writing to out; nil means standard output.
func New(level Level, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}

	debug := pterm.Debug
	debug.Debugger = false

	return &Console{
		level:   level,
		out:     out,
		debug:   debug.WithWriter(out),
		info:    pterm.Info.WithWriter(out),
		warn:    pterm.Warning.WithWriter(out),
		err:     pterm.Error.WithWriter(out),
		success: pterm.Success.WithWriter(out),
	}
}

// Level returns the configured verbosity.
func (c *Console) Level() Level {
	return c.level
}

// Debug logs a debug message.
func (c *Console) Debug(msg string, args ...interface{}) {
	if c.level <= LevelDebug {
		c.print(c.debug, msg, args)
	}
}

// Info logs an informational message.
func (c *Console) Info(msg string, args ...interface{}) {
	if c.level <= LevelInfo {
		c.print(c.info, msg, args)
	}
}

// Warn logs a warning.
func (c *Console) Warn(msg string, args ...interface{}) {
	if c.level <= LevelWarn {
		c.print(c.warn, msg, args)
	}
}

// Error logs an error. Errors are always printed.
func (c *Console) Error(msg string, args ...interface{}) {
	c.print(c.err, msg, args)
}

func (c *Console) print(printer *pterm.PrefixPrinter, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	printer.Printfln(msg, args...)
}

// Success logs a success message at info level.
func (c *Console) Success(msg string, args ...interface{}) {
	if c.level <= LevelInfo {
		c.print(c.success, msg, args)
	}
}

// Println writes a plain line.
func (c *Console) Println(a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// Table renders a boxed table with a header row.
func (c *Console) Table(title string, headers []string, rows [][]string) {
	data := pterm.TableData{headers}
	data = append(data, rows...)

	rendered, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		c.Warn("failed to render table: %v", err)
		return
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintln(&b, BrightCyan(title))
	}
	fmt.Fprintln(&b, rendered)

	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, b.String())
}

// Mark returns a colored check mark or cross.
func Mark(ok bool) string {
	if ok {
		return BrightGreen("✓")
	}
	return BrightRed("✗")
}

// SummaryLine is one line of a run summary.
type SummaryLine struct {
	OK     bool
	Label  string
	Detail string
}

// Summary prints marked lines under a heading.
func (c *Console) Summary(heading string, lines []SummaryLine) {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, BrightCyan(heading))
	for _, l := range lines {
		if l.Detail == "" {
			fmt.Fprintf(&b, "  %s %s\n", Mark(l.OK), l.Label)
			continue
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", Mark(l.OK), l.Label, l.Detail)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, b.String())
}
