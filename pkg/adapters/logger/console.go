// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/user/thumbextractor/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// output is shared by a logger and every component logger derived from it,
// so lines written by concurrent renders never interleave.
type output struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	color  bool
	stamp  bool
	now    func() time.Time
}

// ConsoleLogger writes one line per message. Debug and Info go to stdout,
// Warn and Error to stderr.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	w         *output
}

// ConsoleOption configures a ConsoleLogger.
type ConsoleOption func(*output)

// WithWriters replaces stdout and stderr. Color is disabled unless out is a terminal.
func WithWriters(out, errOut io.Writer) ConsoleOption {
	return func(o *output) {
		o.out = out
		o.errOut = errOut
		o.color = isTerminal(out)
	}
}

// WithTimestamps prefixes every line with an RFC 3339 timestamp.
func WithTimestamps() ConsoleOption {
	return func(o *output) {
		o.stamp = true
	}
}

// NewConsole creates a console logger at the given level.
// Color output is enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel, opts ...ConsoleOption) *ConsoleLogger {
	w := &output{
		out:    os.Stdout,
		errOut: os.Stderr,
		color:  isTerminal(os.Stdout),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &ConsoleLogger{level: level, w: w}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger that tags its lines with component.
// Nested components are joined with a dot.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &ConsoleLogger{level: l.level, component: component, w: l.w}
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	w := l.w

	var b strings.Builder
	if w.stamp {
		b.WriteString(w.now().Format(timestampLayout))
		b.WriteByte(' ')
	}
	if l.component != "" {
		if w.color {
			fmt.Fprintf(&b, "%s[%s]%s ", colorCyan, l.component, colorReset)
		} else {
			fmt.Fprintf(&b, "[%s] ", l.component)
		}
	}
	b.WriteString(l10n.F(msg, args...))

	line := b.String()
	if w.color {
		switch level {
		case ports.LevelDebug:
			line = colorGray + line + colorReset
		case ports.LevelWarn:
			line = colorYellow + line + colorReset
		case ports.LevelError:
			line = colorRed + line + colorReset
		}
	}

	dst := w.out
	if level >= ports.LevelWarn {
		dst = w.errOut
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(dst, line)
}
