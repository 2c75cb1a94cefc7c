package mocks

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/thumbextractor/pkg/ports"
)

// Container is a mock implementation of ports.Container.
// Without DecodeFrameFunc it returns a solid image of the coded size.
type Container struct {
	GeometryValue   ports.StreamGeometry
	FrameList       []ports.FrameInfo
	DecodeFrameFunc func(ctx context.Context, index int) (image.Image, error)

	mu          sync.Mutex
	DecodeCalls []int
	Closed      bool
}

// NewContainer creates a mock container with frames every step and a keyframe every gop frames.
func NewContainer(geo ports.StreamGeometry, step time.Duration, gop int) *Container {
	var frames []ports.FrameInfo
	for i := 0; time.Duration(i)*step < geo.Duration; i++ {
		frames = append(frames, ports.FrameInfo{
			PTS:      time.Duration(i) * step,
			Keyframe: gop <= 1 || i%gop == 0,
		})
	}
	return &Container{GeometryValue: geo, FrameList: frames}
}

func (m *Container) Geometry() ports.StreamGeometry {
	return m.GeometryValue
}

func (m *Container) Frames() []ports.FrameInfo {
	return m.FrameList
}

func (m *Container) DecodeFrame(ctx context.Context, index int) (image.Image, error) {
	m.mu.Lock()
	m.DecodeCalls = append(m.DecodeCalls, index)
	m.mu.Unlock()
	if m.DecodeFrameFunc != nil {
		return m.DecodeFrameFunc(ctx, index)
	}
	if index < 0 || index >= len(m.FrameList) {
		return nil, fmt.Errorf("frame %d out of range", index)
	}
	img := image.NewRGBA(image.Rect(0, 0, m.GeometryValue.CodedWidth, m.GeometryValue.CodedHeight))
	shade := uint8(index % 256)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = shade, shade, shade, 255
	}
	return img, nil
}

func (m *Container) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

var _ ports.Container = (*Container)(nil)

// Prober is a mock implementation of ports.ContainerProber.
type Prober struct {
	OpenFunc  func(ctx context.Context, src ports.ByteSource) (ports.Container, error)
	Container ports.Container
}

func (m *Prober) Open(ctx context.Context, src ports.ByteSource) (ports.Container, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, src)
	}
	if m.Container == nil {
		return nil, fmt.Errorf("mock prober: %w", ports.ErrUnsupported)
	}
	return m.Container, nil
}

var _ ports.ContainerProber = (*Prober)(nil)
