package mp4container

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"testing"
	"time"

	"github.com/user/thumbextractor/pkg/adapters/ffmpegdecoder"
	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/fixtures"
	"github.com/user/thumbextractor/pkg/mocks"
	"github.com/user/thumbextractor/pkg/ports"
)

type recordingDecoder struct {
	streams [][]byte
	ranks   []int
}

func (d *recordingDecoder) DecodeAnnexB(ctx context.Context, data []byte, rank int) (image.Image, error) {
	d.streams = append(d.streams, data)
	d.ranks = append(d.ranks, rank)
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

var clip = fixtures.Clip{Width: 160, Height: 90, FPS: 10, Seconds: 3, GOP: 10}

func openFixture(t *testing.T, decoder FrameDecoder, extra ...string) ports.Container {
	t.Helper()
	path := fixtures.H264MP4(t, clip, extra...)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(decoder, logger.NewNoop()).Open(context.Background(), mocks.NewSource(data))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestProber_Open(t *testing.T) {
	c := openFixture(t, &recordingDecoder{})

	geo := c.Geometry()
	if geo.CodedWidth != 160 || geo.CodedHeight != 90 {
		t.Errorf("coded size = %dx%d, want 160x90", geo.CodedWidth, geo.CodedHeight)
	}
	if geo.RotationDegrees != 0 {
		t.Errorf("rotation = %d, want 0", geo.RotationDegrees)
	}
	if geo.Duration < 2900*time.Millisecond || geo.Duration > 3100*time.Millisecond {
		t.Errorf("duration = %s, want about 3s", geo.Duration)
	}

	frames := c.Frames()
	if len(frames) != 30 {
		t.Fatalf("frames = %d, want 30", len(frames))
	}
	if frames[0].PTS != 0 {
		t.Errorf("first PTS = %s, want 0", frames[0].PTS)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].PTS <= frames[i-1].PTS {
			t.Fatalf("frames not in presentation order at %d: %s <= %s", i, frames[i].PTS, frames[i-1].PTS)
		}
	}
	for _, i := range []int{0, 10, 20} {
		if !frames[i].Keyframe {
			t.Errorf("frame %d should be a keyframe", i)
		}
	}
	if frames[5].Keyframe {
		t.Error("frame 5 should not be a keyframe")
	}
}

func TestContainer_DecodeFrame_GOP(t *testing.T) {
	dec := &recordingDecoder{}
	c := openFixture(t, dec, "-bf", "0")

	if _, err := c.DecodeFrame(context.Background(), 13); err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if len(dec.ranks) != 1 || dec.ranks[0] != 3 {
		t.Errorf("ranks = %v, want [3]", dec.ranks)
	}
	if !bytes.HasPrefix(dec.streams[0], []byte{0, 0, 0, 1}) {
		t.Error("stream should start with a start code")
	}

	if _, err := c.DecodeFrame(context.Background(), 30); err == nil {
		t.Error("expected error for out-of-range frame")
	}
}

func TestContainer_DecodeFrame_BFrames(t *testing.T) {
	dec := &recordingDecoder{}
	opened := openFixture(t, dec, "-bf", "2", "-x264-params", "b-adapt=0")
	c := opened.(*Container)

	// Frames 10-19 form the second GOP. A frame's rank is the number of GOP
	// frames presented before it, not its position in decode order.
	reordered := false
	for i := 10; i < 20; i++ {
		if c.order[i]-c.order[10] != i-10 {
			reordered = true
		}
		if _, err := c.DecodeFrame(context.Background(), i); err != nil {
			t.Fatalf("DecodeFrame(%d) failed: %v", i, err)
		}
	}
	if !reordered {
		t.Fatal("fixture has no reordered frames")
	}
	for i, rank := range dec.ranks {
		if rank != i {
			t.Errorf("frame %d: rank = %d, want %d", i+10, rank, i)
		}
	}
	if c.Frames()[0].PTS != 0 {
		t.Errorf("first PTS = %s, want 0", c.Frames()[0].PTS)
	}
}

func TestContainer_DecodeFrame_FFmpeg(t *testing.T) {
	dec, err := ffmpegdecoder.New("")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	c := openFixture(t, dec)

	img, err := c.DecodeFrame(context.Background(), 17)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 90 {
		t.Errorf("decoded %dx%d, want 160x90", b.Dx(), b.Dy())
	}
}

func TestProber_Open_Unsupported(t *testing.T) {
	p := New(&recordingDecoder{}, logger.NewNoop())

	mkv := mocks.NewSource([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f, 0x42, 0x86, 0x81, 0x01})
	if _, err := p.Open(context.Background(), mkv); !errors.Is(err, ports.ErrUnsupported) {
		t.Errorf("matroska: error = %v, want ErrUnsupported", err)
	}

	path := fixtures.FragmentedMP4(t, clip)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Open(context.Background(), mocks.NewSource(data)); !errors.Is(err, ports.ErrUnsupported) {
		t.Errorf("fragmented: error = %v, want ErrUnsupported", err)
	}
}
