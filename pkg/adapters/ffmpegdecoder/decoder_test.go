package ffmpegdecoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// makeFixture runs ffmpeg to produce a test file and skips the test when ffmpeg
// or the requested encoder is unavailable.
func makeFixture(t *testing.T, name string, args ...string) string {
	t.Helper()
	ffmpeg, err := FindFFmpeg("")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	out := filepath.Join(t.TempDir(), name)
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	full = append(full, out)
	var stderr bytes.Buffer
	cmd := exec.Command(ffmpeg, full...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot create fixture: %v: %s", err, stderr.String())
	}
	return out
}

func TestFindFFmpeg_CustomPathMissing(t *testing.T) {
	_, err := FindFFmpeg("/nonexistent/ffmpeg")
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("error = %v, want ErrFFmpegNotFound", err)
	}
	_, err = FindFFprobe("/nonexistent/ffprobe")
	if !errors.Is(err, ErrFFprobeNotFound) {
		t.Errorf("error = %v, want ErrFFprobeNotFound", err)
	}
}

func TestFindFFmpeg_CustomPathExists(t *testing.T) {
	fake := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := FindFFmpeg(fake)
	if err != nil {
		t.Fatalf("FindFFmpeg failed: %v", err)
	}
	if got != fake {
		t.Errorf("path = %s, want %s", got, fake)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "0.000000",
		12 * time.Second:        "12.000000",
		1500 * time.Millisecond: "1.500000",
		40 * time.Millisecond:   "0.040000",
	}
	for d, want := range tests {
		if got := FormatSeconds(d); got != want {
			t.Errorf("FormatSeconds(%s) = %s, want %s", d, got, want)
		}
	}
}

func TestSelectFilter(t *testing.T) {
	if got := selectFilter(7); got != `select=eq(n\,7)` {
		t.Errorf("selectFilter(7) = %s", got)
	}
}

func TestDecoder_DecodeAnnexB(t *testing.T) {
	path := makeFixture(t, "clip.h264",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10",
		"-frames:v", "10", "-c:v", "libx264", "-g", "5", "-bf", "0", "-f", "h264")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	d, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	img, err := d.DecodeAnnexB(context.Background(), data, 3)
	if err != nil {
		t.Fatalf("DecodeAnnexB failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("decoded %dx%d, want 64x48", b.Dx(), b.Dy())
	}

	if _, err := d.DecodeAnnexB(context.Background(), data, 50); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("rank beyond stream: error = %v, want ErrDecodeFailed", err)
	}
}

func TestDecoder_DecodeFileAt(t *testing.T) {
	path := makeFixture(t, "clip.mp4",
		"-f", "lavfi", "-i", "testsrc=size=80x60:rate=10",
		"-t", "3", "-c:v", "libx264", "-g", "10", "-pix_fmt", "yuv420p")

	d, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	img, err := d.DecodeFileAt(context.Background(), path, 0, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("DecodeFileAt failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Errorf("decoded %dx%d, want 80x60", b.Dx(), b.Dy())
	}
}

func TestDecoder_DecodeAnnexB_Empty(t *testing.T) {
	d := &Decoder{ffmpegPath: "ffmpeg"}
	if _, err := d.DecodeAnnexB(context.Background(), nil, 0); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("error = %v, want ErrDecodeFailed", err)
	}
}
