// Package fixtures generates small video files for tests with the ffmpeg binary.
// Tests are skipped when ffmpeg or the requested encoder is unavailable.
package fixtures

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
)

// FFmpeg returns the ffmpeg path or skips the test.
func FFmpeg(t testing.TB) string {
	t.Helper()
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	return path
}

// FFprobe returns the ffprobe path or skips the test.
func FFprobe(t testing.TB) string {
	t.Helper()
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not available")
	}
	return path
}

// Generate runs ffmpeg with args and writes the result to name inside a temp dir.
func Generate(t testing.TB, name string, args ...string) string {
	t.Helper()
	ffmpeg := FFmpeg(t)
	out := filepath.Join(t.TempDir(), name)

	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	full = append(full, out)

	var stderr bytes.Buffer
	cmd := exec.Command(ffmpeg, full...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot create fixture %s: %v: %s", name, err, stderr.String())
	}
	return out
}

// Clip describes a generated test-pattern clip.
type Clip struct {
	Width   int
	Height  int
	FPS     int
	Seconds int
	GOP     int // keyframe interval in frames
}

func (c Clip) inputArgs() []string {
	return []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc2=size=%dx%d:rate=%d", c.Width, c.Height, c.FPS),
		"-t", fmt.Sprint(c.Seconds),
	}
}

func (c Clip) x264Args() []string {
	return []string{
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-g", fmt.Sprint(c.GOP),
		"-keyint_min", fmt.Sprint(c.GOP),
		"-sc_threshold", "0",
	}
}

// H264MP4 generates a progressive MP4 with H.264 video.
// Extra arguments are inserted before the output path.
func H264MP4(t testing.TB, c Clip, extra ...string) string {
	t.Helper()
	args := append(c.inputArgs(), c.x264Args()...)
	args = append(args, extra...)
	return Generate(t, "clip.mp4", args...)
}

// FragmentedMP4 generates a fragmented MP4 with H.264 video.
func FragmentedMP4(t testing.TB, c Clip) string {
	t.Helper()
	args := append(c.inputArgs(), c.x264Args()...)
	args = append(args, "-movflags", "frag_keyframe+empty_moov")
	return Generate(t, "fragmented.mp4", args...)
}

// Matroska generates an MKV file with H.264 video.
func Matroska(t testing.TB, c Clip) string {
	t.Helper()
	args := append(c.inputArgs(), c.x264Args()...)
	return Generate(t, "clip.mkv", args...)
}
