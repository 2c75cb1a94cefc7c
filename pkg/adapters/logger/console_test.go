package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/thumbextractor/pkg/ports"
)

func newTestLogger(level ports.LogLevel, opts ...ConsoleOption) (*ConsoleLogger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	opts = append([]ConsoleOption{WithWriters(&out, &errOut)}, opts...)
	return NewConsole(level, opts...), &out, &errOut
}

func TestConsoleLogger_Levels(t *testing.T) {
	l, out, errOut := newTestLogger(ports.LevelInfo)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Warn("careful %s", "now")
	l.Error("broken")

	if got := out.String(); got != "shown 2\n" {
		t.Errorf("stdout = %q, want %q", got, "shown 2\n")
	}
	if got := errOut.String(); got != "careful now\nbroken\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	l, out, errOut := newTestLogger(ports.LevelQuiet)
	l.Error("nothing")
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("quiet logger wrote %q / %q", out.String(), errOut.String())
	}
}

func TestConsoleLogger_Component(t *testing.T) {
	l, out, _ := newTestLogger(ports.LevelDebug)

	l.WithComponent("server").Info("bound to %s", ":8080")
	l.WithComponent("orchestrator").WithComponent("decode").Debug("step")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out.String())
	}
	if lines[0] != "[server] bound to :8080" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "[orchestrator.decode] step" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestConsoleLogger_Timestamps(t *testing.T) {
	l, out, _ := newTestLogger(ports.LevelInfo, WithTimestamps())
	l.w.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	}

	l.Info("tick")
	if got := out.String(); got != "2024-05-01T12:30:00.000Z tick\n" {
		t.Errorf("output = %q", got)
	}
}

func TestConsoleLogger_NoColorForBuffers(t *testing.T) {
	l, out, _ := newTestLogger(ports.LevelDebug)
	l.WithComponent("x").Debug("plain")
	if strings.Contains(out.String(), "\033[") {
		t.Errorf("unexpected ANSI codes in %q", out.String())
	}
}

func TestConsoleLogger_ConcurrentLines(t *testing.T) {
	l, out, _ := newTestLogger(ports.LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.WithComponent("worker").Info("render done")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if line != "[worker] render done" {
			t.Errorf("garbled line %q", line)
		}
	}
}
