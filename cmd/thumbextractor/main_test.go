package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/user/thumbextractor/pkg/fixtures"
)

// runApp runs the CLI without letting exit errors terminate the test binary.
func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	return app.Run(append([]string{"thumbextractor"}, args...))
}

func TestRender_RequiresVideo(t *testing.T) {
	err := runApp(t, "render", "--second", "1", "-o", filepath.Join(t.TempDir(), "out.jpg"))
	if err == nil {
		t.Fatal("expected error without a video argument")
	}
	if exit, ok := err.(cli.ExitCoder); !ok || exit.ExitCode() != 2 {
		t.Errorf("expected exit code 2, got %v", err)
	}
}

func TestRender_RequiresSecond(t *testing.T) {
	if err := runApp(t, "render", "-o", "out.jpg", "video.mp4"); err == nil {
		t.Fatal("expected error without --second")
	}
}

func TestRender_InvalidConfig(t *testing.T) {
	err := runApp(t, "render", "-Q", "--second", "1", "--jpeg-quality", "150", "-o", "out.jpg", "video.mp4")
	if err == nil || !strings.Contains(err.Error(), "Quality") {
		t.Errorf("expected quality validation error, got %v", err)
	}
}

func TestRender_SingleFrame(t *testing.T) {
	clip := fixtures.H264MP4(t, fixtures.Clip{Width: 160, Height: 90, FPS: 10, Seconds: 3, GOP: 10})
	dir := t.TempDir()
	out := filepath.Join(dir, "thumb.jpg")
	report := filepath.Join(dir, "report", "render.md")

	err := runApp(t, "render", "-Q", "--second", "1.5", "--height", "45", "--only-keyframe=false",
		"-o", out, "--report", report, clip)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("output is not a JPEG")
	}

	md, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"success", "80x45", "mp4"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("report should contain %q", want)
		}
	}
}

func TestRender_Tile(t *testing.T) {
	clip := fixtures.H264MP4(t, fixtures.Clip{Width: 160, Height: 90, FPS: 10, Seconds: 3, GOP: 10})
	out := filepath.Join(t.TempDir(), "sheet.jpg")

	err := runApp(t, "render", "-Q", "--second", "0", "--tile-cols", "2", "--tile-sample-interval", "1s",
		"--tile-margin", "4", "--tile-color", "#EEAA33", "-o", out, clip)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected output file: %v", err)
	}
}

func TestRender_BeyondDuration(t *testing.T) {
	clip := fixtures.H264MP4(t, fixtures.Clip{Width: 160, Height: 90, FPS: 10, Seconds: 3, GOP: 10})
	out := filepath.Join(t.TempDir(), "thumb.jpg")

	err := runApp(t, "render", "-Q", "--second", "60", "-o", out, clip)
	if exit, ok := err.(cli.ExitCoder); !ok || exit.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output should be written for a failed render")
	}
}

func TestVersion(t *testing.T) {
	if err := runApp(t, "version"); err != nil {
		t.Errorf("version failed: %v", err)
	}
}
