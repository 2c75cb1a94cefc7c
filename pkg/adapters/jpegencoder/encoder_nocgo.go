//go:build !cgo

package jpegencoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"github.com/user/thumbextractor/pkg/ports"
)

const backend = "image/jpeg"

// encode ignores Progressive and OptimizeHuffman: the standard library
// writes baseline sequential JPEG with the default Huffman tables.
func encode(img image.Image, opts ports.JPEGOptions, unit byte, x, y uint16) ([]byte, string, error) {
	src := image.Image(toRGBA(img))
	if opts.Smoothing > 0 {
		src = imaging.Blur(src, float64(opts.Smoothing)/100)
	}

	quality := opts.Quality
	if quality < 1 {
		quality = 1
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("jpegencoder: %w", err)
	}
	data, err := spliceHeaders(buf.Bytes(), unit, x, y)
	return data, "", err
}
