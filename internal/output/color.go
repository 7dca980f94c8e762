package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Printer handles colored output
type Printer struct {
	out      io.Writer
	err      io.Writer
	useColor bool

	// mu serializes writes to out between the spinner and regular output
	mu sync.Mutex
}

// NewPrinter creates a new printer with color support
func NewPrinter() *Printer {
	return &Printer{
		out:      os.Stdout,
		err:      os.Stderr,
		useColor: isTerminal(),
	}
}

// NewPrinterWithWriters creates a printer with custom writers (for testing)
func NewPrinterWithWriters(out, err io.Writer, useColor bool) *Printer {
	return &Printer{
		out:      out,
		err:      err,
		useColor: useColor,
	}
}

// Interactive reports whether output goes to a color-capable terminal
func (p *Printer) Interactive() bool {
	return p.useColor
}

// Out returns the writer for regular output
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) write(w io.Writer, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(w, format, args...)
}

func (p *Printer) styled(w io.Writer, color, symbol, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if p.useColor {
		p.write(w, "%s%s%s%s%s\n", colorBold, color, symbol, message, colorReset)
	} else {
		p.write(w, "%s%s\n", symbol, message)
	}
}

// Success prints a success message in green
func (p *Printer) Success(format string, args ...interface{}) {
	p.styled(p.out, colorGreen, "✓ ", format, args...)
}

// Error prints an error message in red
func (p *Printer) Error(format string, args ...interface{}) {
	p.styled(p.err, colorRed, "✗ ", format, args...)
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, args ...interface{}) {
	p.styled(p.err, colorYellow, "⚠ ", format, args...)
}

// Info prints an info message in cyan
func (p *Printer) Info(format string, args ...interface{}) {
	p.styled(p.out, colorCyan, "→ ", format, args...)
}

// Step prints a step message in blue
func (p *Printer) Step(format string, args ...interface{}) {
	p.styled(p.out, colorBlue, "▶ ", format, args...)
}

// Detail prints a detail message in gray
func (p *Printer) Detail(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if p.useColor {
		p.write(p.out, "%s  %s%s\n", colorGray, message, colorReset)
	} else {
		p.write(p.out, "  %s\n", message)
	}
}

// Print prints a plain message without color
func (p *Printer) Print(format string, args ...interface{}) {
	p.write(p.out, format, args...)
}

// Println prints a plain message with newline
func (p *Printer) Println(args ...interface{}) {
	p.write(p.out, "%s", fmt.Sprintln(args...))
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
