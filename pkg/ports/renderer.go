package ports

import (
	"image"
	"image/color"
)

// Renderer provides the pixel operations used to bring decoded frames into
// display space and to compose tile grids.
type Renderer interface {
	// CreateCanvas creates a width x height canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// ResizeImage scales img to exactly width x height. The result has its
	// origin at (0,0) and is deterministic for identical inputs.
	ResizeImage(img image.Image, width, height int) image.Image

	// RotateImage rotates img clockwise by 0, 90, 180 or 270 degrees.
	RotateImage(img image.Image, degrees int) image.Image

	// EncodePNG serializes img losslessly for debug dumps.
	EncodePNG(img image.Image) ([]byte, error)
}

// Canvas is a drawing surface for one composed image.
type Canvas interface {
	// DrawImage draws img with its top-left corner at (x, y).
	DrawImage(img image.Image, x, y int)

	// ToImage returns the composed pixels.
	ToImage() image.Image
}
