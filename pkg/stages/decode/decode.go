// Package decode implements the frame decoding stage.
package decode

import (
	"context"
	"fmt"
	"image"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// Stage decodes one frame and normalizes it to display space.
type Stage struct {
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new decode stage.
func NewStage(renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		logger:   logger.WithComponent("decode"),
	}
}

// Execute decodes the frame at the resolved position.
// The sample aspect ratio is applied first, then the rotation.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.FrameSample, error) {
	if input.Container == nil {
		return pipeline.FrameSample{}, fmt.Errorf("%w: no container", pipeline.ErrDecode)
	}

	pos := input.Position
	s.logger.Debug("Decoding frame %d at %s", pos.Index, pos.PTS)

	img, err := input.Container.DecodeFrame(ctx, pos.Index)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.FrameSample{}, ctx.Err()
		}
		return pipeline.FrameSample{}, fmt.Errorf("%w: frame %d: %v", pipeline.ErrDecode, pos.Index, err)
	}
	if img == nil || img.Bounds().Empty() {
		return pipeline.FrameSample{}, fmt.Errorf("%w: frame %d decoded to an empty image", pipeline.ErrDecode, pos.Index)
	}

	img = s.Normalize(img, input.Container.Geometry())
	b := img.Bounds()

	return pipeline.FrameSample{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		PTS:    pos.PTS,
	}, nil
}

// Normalize converts a coded-space image to display space.
// The stretch is computed from the decoded size, which may already be cropped.
func (s *Stage) Normalize(img image.Image, geo ports.StreamGeometry) image.Image {
	b := img.Bounds()
	decoded := ports.StreamGeometry{
		CodedWidth:        b.Dx(),
		CodedHeight:       b.Dy(),
		SampleAspectRatio: geo.SampleAspectRatio,
	}
	if w, h := decoded.StretchedSize(); w != b.Dx() || h != b.Dy() {
		s.logger.Debug("Applying sample aspect ratio %d:%d (%dx%d -> %dx%d)",
			geo.SampleAspectRatio.Num, geo.SampleAspectRatio.Den, b.Dx(), b.Dy(), w, h)
		img = s.renderer.ResizeImage(img, w, h)
	}

	if geo.RotationDegrees != 0 {
		s.logger.Debug("Rotating frame by %d degrees", geo.RotationDegrees)
		img = s.renderer.RotateImage(img, geo.RotationDegrees)
	}
	return img
}
