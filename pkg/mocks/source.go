package mocks

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/user/thumbextractor/pkg/ports"
)

// Source is an in-memory ports.LocalSource.
type Source struct {
	Data     []byte
	PathName string

	mu     sync.Mutex
	closed bool
}

// NewSource creates a Source over data.
func NewSource(data []byte) *Source {
	return &Source{Data: data, PathName: "/mock/video.mp4"}
}

func (m *Source) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.Data).ReadAt(p, off)
}

func (m *Source) Size() int64 {
	return int64(len(m.Data))
}

func (m *Source) Path() string {
	return m.PathName
}

func (m *Source) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *Source) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.LocalSource = (*Source)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener backed by a map of names.
type SourceOpener struct {
	Sources map[string]*Source
	Err     error
}

func (m *SourceOpener) OpenSource(ctx context.Context, name string) (ports.ByteSource, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	src, ok := m.Sources[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ports.ErrSourceNotFound)
	}
	return src, nil
}

var _ ports.SourceOpener = (*SourceOpener)(nil)
