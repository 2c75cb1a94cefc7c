package ports

import (
	"image"
)

// JPEGOptions configures JPEG serialization.
type JPEGOptions struct {
	Baseline        bool // Restrict quantization tables to baseline-compatible values
	Progressive     bool // Write a progressive scan script
	OptimizeHuffman bool // Compute optimal Huffman tables
	Smoothing       int  // Input smoothing factor: 0-100
	Quality         int  // 0-100
	DPI             int  // Pixel density written to the JFIF header
}

// ImageEncoder serializes a bitmap to JPEG.
type ImageEncoder interface {
	// EncodeJPEG encodes img with the given options.
	// display is the display aspect of the source (width, height) used to derive the JFIF density.
	// Identical inputs must produce identical bytes.
	EncodeJPEG(img image.Image, opts JPEGOptions, display image.Point) ([]byte, error)
}
