package mocks

import (
	"image"
	"sync"

	"github.com/user/thumbextractor/pkg/ports"
)

// EncodeCall records one EncodeJPEG call.
type EncodeCall struct {
	Size    image.Point
	Options ports.JPEGOptions
	Display image.Point
}

// ImageEncoder is a mock implementation of ports.ImageEncoder.
type ImageEncoder struct {
	EncodeJPEGFunc func(img image.Image, opts ports.JPEGOptions, display image.Point) ([]byte, error)

	mu    sync.Mutex
	Calls []EncodeCall
}

func (m *ImageEncoder) EncodeJPEG(img image.Image, opts ports.JPEGOptions, display image.Point) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, EncodeCall{Size: img.Bounds().Size(), Options: opts, Display: display})
	m.mu.Unlock()
	if m.EncodeJPEGFunc != nil {
		return m.EncodeJPEGFunc(img, opts, display)
	}
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}

var _ ports.ImageEncoder = (*ImageEncoder)(nil)
