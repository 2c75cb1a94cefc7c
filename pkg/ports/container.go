package ports

import (
	"context"
	"errors"
	"image"
	"math"
	"time"
)

// ErrUnsupported is returned by a ContainerProber that cannot handle the given container or codec.
var ErrUnsupported = errors.New("container: unsupported")

// Ratio is a rational number such as a sample aspect ratio.
type Ratio struct {
	Num int
	Den int
}

// IsSquare reports whether the ratio is 1:1 or unset.
func (r Ratio) IsSquare() bool {
	return r.Num <= 0 || r.Den <= 0 || r.Num == r.Den
}

// StreamGeometry describes the intrinsic geometry of the selected video stream.
type StreamGeometry struct {
	CodedWidth        int
	CodedHeight       int
	SampleAspectRatio Ratio
	RotationDegrees   int // 0, 90, 180 or 270, clockwise
	Duration          time.Duration
}

// StretchedSize returns the coded size after applying the sample aspect ratio.
// The larger axis is stretched so no coded pixels are dropped.
func (g StreamGeometry) StretchedSize() (int, int) {
	w, h := g.CodedWidth, g.CodedHeight
	sar := g.SampleAspectRatio
	if sar.IsSquare() {
		return w, h
	}
	if sar.Num > sar.Den {
		w = int(math.Round(float64(w) * float64(sar.Num) / float64(sar.Den)))
	} else {
		h = int(math.Round(float64(h) * float64(sar.Den) / float64(sar.Num)))
	}
	return w, h
}

// DisplaySize returns the display-space size: stretched by the sample aspect ratio, then rotated.
func (g StreamGeometry) DisplaySize() (int, int) {
	w, h := g.StretchedSize()
	if g.RotationDegrees == 90 || g.RotationDegrees == 270 {
		return h, w
	}
	return w, h
}

// NormalizeRotation folds any angle in degrees to the nearest of 0, 90, 180 or 270.
func NormalizeRotation(deg float64) int {
	r := int(math.Round(deg/90)) * 90
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// FrameInfo describes one frame of the selected stream.
type FrameInfo struct {
	PTS      time.Duration // presentation time relative to stream start
	Keyframe bool
}

// Container is an opened video resource with its best video stream selected.
type Container interface {
	// Geometry returns the geometry of the selected stream.
	Geometry() StreamGeometry

	// Frames returns the frames of the selected stream in presentation order.
	Frames() []FrameInfo

	// DecodeFrame decodes the frame at the given index of Frames().
	// The returned image is in coded space: no aspect or rotation correction is applied.
	DecodeFrame(ctx context.Context, index int) (image.Image, error)

	// Close releases decoder resources. It does not close the ByteSource.
	Close() error
}

// ContainerProber opens containers from byte sources.
type ContainerProber interface {
	// Open inspects the source and selects the video stream with the largest pixel area.
	Open(ctx context.Context, src ByteSource) (Container, error)
}
