package ffprobe

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/user/thumbextractor/pkg/ports"
)

// FileDecoder decodes the first frame of a stream presented at or after pts.
type FileDecoder interface {
	DecodeFileAt(ctx context.Context, path string, streamIndex int, pts time.Duration) (image.Image, error)
}

// seekSlack is subtracted from seek targets so rounding in printed
// timestamps cannot skip past the wanted frame.
const seekSlack = time.Millisecond

// Prober opens any source ffprobe can read.
type Prober struct {
	run     Runner
	decoder FileDecoder
	logger  ports.Logger
	timeout time.Duration
	tempDir string
}

// New creates a new Prober.
func New(run Runner, decoder FileDecoder, logger ports.Logger) *Prober {
	return &Prober{
		run:     run,
		decoder: decoder,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// WithTimeout sets the timeout of each ffprobe invocation.
func (p *Prober) WithTimeout(timeout time.Duration) *Prober {
	p.timeout = timeout
	return p
}

// WithTempDir sets the directory used to spool non-local sources.
func (p *Prober) WithTempDir(dir string) *Prober {
	p.tempDir = dir
	return p
}

// Open implements ports.ContainerProber.
// Sources that are not backed by a local file are copied to a temporary file first.
func (p *Prober) Open(ctx context.Context, src ports.ByteSource) (ports.Container, error) {
	path, cleanup, err := p.localPath(src)
	if err != nil {
		return nil, err
	}

	c, err := p.open(ctx, path)
	if err != nil {
		cleanup()
		return nil, err
	}
	c.cleanup = cleanup
	return c, nil
}

func (p *Prober) open(ctx context.Context, path string) (*Container, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	stream := result.VideoStream()
	if stream == nil {
		return nil, ErrNoVideoStream
	}

	geo := ports.StreamGeometry{
		CodedWidth:      stream.Width,
		CodedHeight:     stream.Height,
		RotationDegrees: ports.NormalizeRotation(stream.Rotation()),
	}
	if num, den, ok := parseRatio(stream.SampleAspect); ok {
		geo.SampleAspectRatio = ports.Ratio{Num: num, Den: den}
	}
	if d, ok := parseSeconds(stream.Duration); ok && d > 0 {
		geo.Duration = d
	} else if d, ok := parseSeconds(result.Format.Duration); ok && d > 0 {
		geo.Duration = d
	}

	packets, err := p.ProbePackets(ctx, path, stream.Index)
	if err != nil {
		return nil, err
	}

	start, hasStart := parseSeconds(result.Format.StartTime)
	frames := make([]ports.FrameInfo, 0, len(packets))
	for _, pkt := range packets {
		pts, ok := parseSeconds(pkt.PTSTime)
		if !ok || strings.Contains(pkt.Flags, "D") {
			continue
		}
		frames = append(frames, ports.FrameInfo{
			PTS:      pts,
			Keyframe: strings.Contains(pkt.Flags, "K"),
		})
	}
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].PTS < frames[j].PTS })

	if !hasStart && len(frames) > 0 {
		start = frames[0].PTS
	}
	for i := range frames {
		frames[i].PTS -= start
	}

	p.logger.Debug("Probed %s stream %d (%s): %dx%d, %d frames, duration %s",
		result.Format.FormatName, stream.Index, stream.CodecName, geo.CodedWidth, geo.CodedHeight, len(frames), geo.Duration)

	return &Container{
		path:        path,
		streamIndex: stream.Index,
		geometry:    geo,
		frames:      frames,
		decoder:     p.decoder,
		cleanup:     func() {},
	}, nil
}

func (p *Prober) localPath(src ports.ByteSource) (string, func(), error) {
	if local, ok := src.(ports.LocalSource); ok {
		return local.Path(), func() {}, nil
	}

	f, err := os.CreateTemp(p.tempDir, "thumbextractor-*.video")
	if err != nil {
		return "", nil, fmt.Errorf("create spool file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, io.NewSectionReader(src, 0, src.Size())); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool source: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool source: %w", err)
	}
	p.logger.Debug("Spooled %d bytes to %s", src.Size(), f.Name())
	return f.Name(), cleanup, nil
}

// Container is a video stream of a probed file.
type Container struct {
	path        string
	streamIndex int
	geometry    ports.StreamGeometry
	frames      []ports.FrameInfo
	decoder     FileDecoder
	cleanup     func()
}

// Geometry implements ports.Container.
func (c *Container) Geometry() ports.StreamGeometry {
	return c.geometry
}

// Frames implements ports.Container.
func (c *Container) Frames() []ports.FrameInfo {
	return c.frames
}

// DecodeFrame implements ports.Container.
func (c *Container) DecodeFrame(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= len(c.frames) {
		return nil, fmt.Errorf("ffprobe: frame %d out of range", index)
	}
	pts := c.frames[index].PTS - seekSlack
	if pts < 0 {
		pts = 0
	}
	return c.decoder.DecodeFileAt(ctx, c.path, c.streamIndex, pts)
}

// Close removes the spool file, if any.
func (c *Container) Close() error {
	c.cleanup()
	return nil
}

var (
	_ ports.ContainerProber = (*Prober)(nil)
	_ ports.Container       = (*Container)(nil)
)
