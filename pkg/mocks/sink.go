package mocks

import (
	"image"
	"sync"

	"github.com/user/thumbextractor/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	RenderIDs  []string
	SeekJSON   []byte
	LayoutJSON []byte
	Frames     map[int]image.Image
	Output     []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

// ForRender records the render ID and returns the same sink.
func (m *DebugSink) ForRender(renderID string) ports.DebugSink {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RenderIDs = append(m.RenderIDs, renderID)
	return m
}

func (m *DebugSink) SaveSeekJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeekJSON = data
	return nil
}

func (m *DebugSink) SaveLayoutJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LayoutJSON = data
	return nil
}

func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = img
	return nil
}

func (m *DebugSink) SaveOutput(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Output = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
