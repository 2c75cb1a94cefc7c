// Package ffmpegdecoder decodes single video frames with an external ffmpeg process.
//
// Frames are returned in coded space: ffmpeg is told not to apply rotation
// metadata and no sample-aspect scaling is requested.
package ffmpegdecoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found")

	// ErrFFprobeNotFound is returned when ffprobe is not found.
	ErrFFprobeNotFound = errors.New("ffmpegdecoder: ffprobe not found")

	// ErrDecodeFailed is returned when ffmpeg produced no frame.
	ErrDecodeFailed = errors.New("ffmpegdecoder: decode failed")
)

// FindFFmpeg returns the path of the ffmpeg binary.
// A non-empty custom path must exist; otherwise PATH and common locations are searched.
func FindFFmpeg(custom string) (string, error) {
	return findBinary("ffmpeg", custom, ErrFFmpegNotFound)
}

// FindFFprobe returns the path of the ffprobe binary, searched like FindFFmpeg.
func FindFFprobe(custom string) (string, error) {
	return findBinary("ffprobe", custom, ErrFFprobeNotFound)
}

// IsAvailable reports whether ffmpeg can be found without a custom path.
func IsAvailable() bool {
	_, err := FindFFmpeg("")
	return err == nil
}

func findBinary(name, custom string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
			`C:\Program Files (x86)\ffmpeg\bin\` + execName,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/" + name,
			"/usr/local/bin/" + name,
			"/opt/homebrew/bin/" + name,
			"/snap/bin/" + name,
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

// Decoder runs ffmpeg to decode one frame per call. It is safe for concurrent use.
type Decoder struct {
	ffmpegPath string
}

// New locates ffmpeg (custom path first) and returns a decoder.
func New(customPath string) (*Decoder, error) {
	path, err := FindFFmpeg(customPath)
	if err != nil {
		return nil, err
	}
	return &Decoder{ffmpegPath: path}, nil
}

// Path returns the ffmpeg binary in use.
func (d *Decoder) Path() string {
	return d.ffmpegPath
}

// DecodeAnnexB decodes an H.264 Annex B elementary stream that starts with
// a keyframe and returns the frame at the given presentation rank (0-based).
func (d *Decoder) DecodeAnnexB(ctx context.Context, data []byte, rank int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty stream", ErrDecodeFailed)
	}
	if rank < 0 {
		return nil, fmt.Errorf("%w: negative frame rank %d", ErrDecodeFailed, rank)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "h264",
		"-i", "pipe:0",
		"-an", "-sn",
		"-vf", selectFilter(rank),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}
	return d.run(ctx, args, bytes.NewReader(data))
}

// DecodeFileAt decodes the first frame of the given stream presented at or after pts.
// A negative stream index selects ffmpeg's default video stream.
func (d *Decoder) DecodeFileAt(ctx context.Context, path string, streamIndex int, pts time.Duration) (image.Image, error) {
	if pts < 0 {
		pts = 0
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-noautorotate",
		"-ss", FormatSeconds(pts),
		"-i", path,
	}
	if streamIndex >= 0 {
		args = append(args, "-map", "0:"+strconv.Itoa(streamIndex))
	}
	args = append(args,
		"-an", "-sn",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	return d.run(ctx, args, nil)
}

func (d *Decoder) run(ctx context.Context, args []string, stdin *bytes.Reader) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v\nstderr: %s", ErrDecodeFailed, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: no frame produced", ErrDecodeFailed)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: decode png: %v", ErrDecodeFailed, err)
	}
	return img, nil
}

// selectFilter keeps only the n-th output frame.
func selectFilter(n int) string {
	return `select=eq(n\,` + strconv.Itoa(n) + `)`
}

// FormatSeconds formats a duration as decimal seconds for ffmpeg's -ss option.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}
