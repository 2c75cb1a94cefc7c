package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/thumbextractor/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodePNGFunc    func(img image.Image) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
	RotateImageFunc  func(img image.Image, degrees int) image.Image

	mu          sync.Mutex
	Canvases    []*Canvas
	ResizeCalls []image.Point
	RotateCalls []int
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height, Background: bg}
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

// EncodePNG returns a PNG signature unless EncodePNGFunc is set.
func (m *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	m.mu.Lock()
	m.ResizeCalls = append(m.ResizeCalls, image.Point{X: width, Y: height})
	m.mu.Unlock()
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (m *Renderer) RotateImage(img image.Image, degrees int) image.Image {
	m.mu.Lock()
	m.RotateCalls = append(m.RotateCalls, degrees)
	m.mu.Unlock()
	if m.RotateImageFunc != nil {
		return m.RotateImageFunc(img, degrees)
	}
	b := img.Bounds()
	if degrees == 90 || degrees == 270 {
		return image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	}
	return image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
}

var _ ports.Renderer = (*Renderer)(nil)

// DrawCall records one DrawImage call.
type DrawCall struct {
	X, Y int
	Size image.Point
}

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	Width      int
	Height     int
	Background color.Color
	Draws      []DrawCall
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.Draws = append(m.Draws, DrawCall{X: x, Y: y, Size: img.Bounds().Size()})
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
