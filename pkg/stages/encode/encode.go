// Package encode implements the JPEG encoding stage.
package encode

import (
	"context"
	"fmt"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// Stage encodes the final bitmap into a JPEG.
type Stage struct {
	encoder ports.ImageEncoder
	logger  ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(encoder ports.ImageEncoder, logger ports.Logger) *Stage {
	return &Stage{
		encoder: encoder,
		logger:  logger.WithComponent("encode"),
	}
}

// Execute encodes the image with the given options.
// Any encoder failure is reported as ErrEncode.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.EncodeResult{}, err
	}
	if input.Image == nil || input.Image.Bounds().Empty() {
		return pipeline.EncodeResult{}, fmt.Errorf("%w: empty image", pipeline.ErrEncode)
	}

	opts := input.Options
	if err := ValidateOptions(opts); err != nil {
		return pipeline.EncodeResult{}, err
	}

	b := input.Image.Bounds()
	display := input.Display
	if display.Width <= 0 || display.Height <= 0 {
		display = pipeline.Dimension{Width: b.Dx(), Height: b.Dy()}
	}

	s.logger.Debug("Encoding %dx%d JPEG (quality %d, progressive %t, optimize %t, smoothing %d, dpi %d)",
		b.Dx(), b.Dy(), opts.Quality, opts.Progressive, opts.OptimizeHuffman, opts.Smoothing, opts.DPI)

	data, err := s.encoder.EncodeJPEG(input.Image, opts, display.Point())
	if err != nil {
		return pipeline.EncodeResult{}, fmt.Errorf("%w: %v", pipeline.ErrEncode, err)
	}
	if len(data) == 0 {
		return pipeline.EncodeResult{}, fmt.Errorf("%w: encoder produced no data", pipeline.ErrEncode)
	}

	return pipeline.EncodeResult{
		Data:   data,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// ValidateOptions checks that the JPEG options are within range.
func ValidateOptions(opts ports.JPEGOptions) error {
	if opts.Quality < 0 || opts.Quality > 100 {
		return fmt.Errorf("%w: jpeg quality %d out of range 0-100", pipeline.ErrInvalidRequest, opts.Quality)
	}
	if opts.Smoothing < 0 || opts.Smoothing > 100 {
		return fmt.Errorf("%w: jpeg smoothing %d out of range 0-100", pipeline.ErrInvalidRequest, opts.Smoothing)
	}
	if opts.DPI < 0 {
		return fmt.Errorf("%w: jpeg dpi %d is negative", pipeline.ErrInvalidRequest, opts.DPI)
	}
	return nil
}
