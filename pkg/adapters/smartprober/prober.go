// Package smartprober provides a container prober that detects the container
// and codec of a source and selects the appropriate backend.
package smartprober

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/thumbextractor/pkg/adapters/codecdetect"
	"github.com/user/thumbextractor/pkg/adapters/ffmpegdecoder"
	"github.com/user/thumbextractor/pkg/adapters/ffprobe"
	"github.com/user/thumbextractor/pkg/adapters/mp4container"
	"github.com/user/thumbextractor/pkg/ports"
)

// Backend represents the container backend used.
type Backend string

const (
	// BackendMP4 reads progressive AVC MP4 sample tables directly.
	BackendMP4 Backend = "mp4"
	// BackendFFprobe handles every other container through ffprobe.
	BackendFFprobe Backend = "ffprobe"
)

// Options configures the smart prober.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
	// TempDir is where non-local sources are spooled for ffprobe.
	TempDir string
	// ProbeTimeout bounds each ffprobe invocation. Zero keeps the backend default.
	ProbeTimeout time.Duration
}

// ErrNoBackendAvailable is returned when ffmpeg cannot be found.
var ErrNoBackendAvailable = errors.New("smartprober: no backend available")

// Prober routes each source to the mp4 or ffprobe backend.
type Prober struct {
	mp4      ports.ContainerProber
	fallback ports.ContainerProber
	logger   ports.Logger
}

// New locates ffmpeg and ffprobe and creates both backends.
// Without ffprobe only progressive AVC MP4 sources can be opened.
func New(opts Options, logger ports.Logger) (*Prober, error) {
	decoder, err := ffmpegdecoder.New(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackendAvailable, err)
	}

	p := &Prober{
		mp4:    mp4container.New(decoder, logger.WithComponent("mp4")),
		logger: logger,
	}

	ffprobePath, err := ffmpegdecoder.FindFFprobe(opts.FFprobePath)
	if err != nil {
		logger.Warn("ffprobe not found, only progressive H.264 MP4 is supported")
		return p, nil
	}
	fb := ffprobe.New(ffprobe.ExecRunner(ffprobePath), decoder, logger.WithComponent("ffprobe")).
		WithTempDir(opts.TempDir)
	if opts.ProbeTimeout > 0 {
		fb = fb.WithTimeout(opts.ProbeTimeout)
	}
	p.fallback = fb
	return p, nil
}

// NewWithBackends creates a prober from explicit backends. Either may be nil.
func NewWithBackends(mp4, fallback ports.ContainerProber, logger ports.Logger) *Prober {
	return &Prober{mp4: mp4, fallback: fallback, logger: logger}
}

// Select reports which backend Open would try first for src.
func (p *Prober) Select(src ports.ByteSource) (codecdetect.Result, Backend) {
	res, err := codecdetect.Detect(src, src.Size())
	if err != nil {
		p.logger.Debug("Codec detection failed: %v", err)
		return res, BackendFFprobe
	}
	if res.ProgressiveAVC() && p.mp4 != nil {
		return res, BackendMP4
	}
	return res, BackendFFprobe
}

// Open implements ports.ContainerProber.
// The mp4 backend is tried first for progressive AVC MP4; if it reports
// ports.ErrUnsupported the ffprobe backend is used instead.
func (p *Prober) Open(ctx context.Context, src ports.ByteSource) (ports.Container, error) {
	res, backend := p.Select(src)
	p.logger.Debug("Detected %s container, codec %s, fragmented %v: using %s backend",
		res.Container, res.Codec, res.Fragmented, backend)

	if backend == BackendMP4 {
		c, err := p.mp4.Open(ctx, src)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ports.ErrUnsupported) || p.fallback == nil {
			return nil, err
		}
		p.logger.Debug("mp4 backend declined: %v", err)
	}

	if p.fallback == nil {
		return nil, fmt.Errorf("%w: %s container with %s video needs ffprobe", ports.ErrUnsupported, res.Container, res.Codec)
	}
	return p.fallback.Open(ctx, src)
}

var _ ports.ContainerProber = (*Prober)(nil)
