// Package jpegencoder implements ports.ImageEncoder.
//
// With cgo the image is compressed by libjpeg and every JPEGOptions field is
// honoured. Without cgo the standard library encoder is used and the JFIF and
// Adobe segments are spliced in afterwards; progressive mode and Huffman
// optimization are not available in that build.
package jpegencoder

import (
	"errors"
	"image"
	"image/draw"

	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/ports"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("jpegencoder: empty image")

// Encoder implements ports.ImageEncoder. It is safe for concurrent use.
type Encoder struct {
	logger ports.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger sets the logger that receives backend warnings at debug level.
func WithLogger(l ports.Logger) Option {
	return func(e *Encoder) {
		e.logger = l.WithComponent("jpegencoder")
	}
}

// New creates a new Encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{logger: logger.NewNoop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the name of the compression backend in this build.
func (e *Encoder) Backend() string {
	return backend
}

// EncodeJPEG implements ports.ImageEncoder.
func (e *Encoder) EncodeJPEG(img image.Image, opts ports.JPEGOptions, display image.Point) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	size := img.Bounds().Size()
	unit, x, y := Density(size, display, opts.DPI)
	data, warning, err := encode(img, opts, unit, x, y)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		e.logger.Debug("%s: %s", backend, warning)
	}
	return data, nil
}

// Density returns the JFIF density unit and X/Y densities for an output of
// the given size showing a source with the given display aspect.
// The display aspect is fitted to the output first, so an output stretched
// away from the display aspect carries the correction in its densities.
// A zero dpi writes an aspect-only header (unit 0).
func Density(out, display image.Point, dpi int) (unit byte, x, y uint16) {
	dw, dh := display.X, display.Y
	if dw <= 0 || dh <= 0 {
		dw, dh = out.X, out.Y
	}

	if out.Y*dw > out.X*dh {
		dw = out.Y * dw / dh
		dh = out.Y
	} else {
		dh = out.X * dh / dw
		dw = out.X
	}
	if dw <= 0 || dh <= 0 {
		dw, dh = out.X, out.Y
	}

	if dpi <= 0 {
		ax, ay := out.X*dh, out.Y*dw
		g := gcd(ax, ay)
		return 0, clampDensity(ax / g), clampDensity(ay / g)
	}
	return 1, clampDensity(dpi * out.X / dw), clampDensity(dpi * out.Y / dh)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func clampDensity(v int) uint16 {
	if v < 1 {
		return 1
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// toRGBA converts any image to an *image.RGBA with its origin at (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// packRGB returns the pixels as tightly packed 8-bit RGB rows.
func packRGB(img image.Image) []byte {
	rgba := toRGBA(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	out := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := out[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out
}

var _ ports.ImageEncoder = (*Encoder)(nil)
