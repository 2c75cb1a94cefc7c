// Package ggrenderer implements ports.Renderer with gg canvases,
// x/image Catmull-Rom scaling and imaging rotations.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/thumbextractor/pkg/ports"
)

// Renderer implements ports.Renderer.
type Renderer struct {
	png png.Encoder
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{png: png.Encoder{CompressionLevel: png.BestSpeed}}
}

// CreateCanvas creates a canvas filled with bg. A nil bg fills black.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	if bg == nil {
		bg = color.Black
	}
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// ResizeImage scales with Catmull-Rom resampling into a new RGBA image.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// RotateImage rotates clockwise. Angles other than 90, 180 and 270 return img unchanged.
func (r *Renderer) RotateImage(img image.Image, degrees int) image.Image {
	// imaging rotates counter-clockwise.
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// EncodePNG encodes with fast compression; debug dumps favour render latency over size.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Canvas implements ports.Canvas on a gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImage draws img with its top-left corner at (x, y), whatever its bounds origin.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	c.dc.DrawImage(img, x-b.Min.X, y-b.Min.Y)
}

// ToImage returns the canvas pixels.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var (
	_ ports.Renderer = (*Renderer)(nil)
	_ ports.Canvas   = (*Canvas)(nil)
)
