package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/sqve/tandem/internal/styles"
)

// Options configures a Logger. Zero writers default to os.Stdout/os.Stderr.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Plain  bool // Disable colors and symbols
	Debug  bool // Enable debug logging
}

// Logger prints user-facing progress. It is built once at the entry point
// and passed to every component that reports progress.
type Logger struct {
	stdout io.Writer
	stderr io.Writer
	plain  bool
	debug  bool
}

func New(opts Options) *Logger {
	l := &Logger{
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		plain:  opts.Plain,
		debug:  opts.Debug,
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(Options{Stdout: io.Discard, Stderr: io.Discard, Plain: true})
}

func (l *Logger) IsPlain() bool {
	return l.plain
}

func (l *Logger) IsDebug() bool {
	return l.debug
}

// Stdout is where command results go.
func (l *Logger) Stdout() io.Writer {
	return l.stdout
}

// Stderr is where progress and diagnostics go.
func (l *Logger) Stderr() io.Writer {
	return l.stderr
}

// Debug prints debug information when debug mode is enabled
func (l *Logger) Debug(format string, args ...any) {
	if l.debug {
		fmt.Fprintf(l.stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// Info prints progress messages
func (l *Logger) Info(format string, args ...any) {
	l.print(l.stderr, &styles.Info, "→", "", format, args...)
}

// Success prints success messages
func (l *Logger) Success(format string, args ...any) {
	l.print(l.stdout, &styles.Success, "✓", "", format, args...)
}

// Warning prints warnings to stderr
func (l *Logger) Warning(format string, args ...any) {
	l.print(l.stderr, &styles.Warning, "⚠", "Warning: ", format, args...)
}

// Error prints error messages to stderr
func (l *Logger) Error(format string, args ...any) {
	l.print(l.stderr, &styles.Error, "✗", "Error: ", format, args...)
}

// Step prints a numbered progress line such as "Step 2/5: Running make all".
func (l *Logger) Step(step, total int, format string, args ...any) {
	l.Info("%s", StepFormat(step, total, fmt.Sprintf(format, args...)))
}

func (l *Logger) print(w io.Writer, style *lipgloss.Style, symbol, plainPrefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.plain {
		fmt.Fprintf(w, "%s%s\n", plainPrefix, msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", styles.Render(style, symbol, false), msg)
}
