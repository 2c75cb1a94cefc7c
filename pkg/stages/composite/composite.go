// Package composite implements the contact sheet composition stage.
package composite

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// Stage composes sampled frames into a single tile canvas.
type Stage struct {
	renderer   ports.Renderer
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new composite stage.
func NewStage(renderer ports.Renderer, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		renderer:   renderer,
		logger:     logger.WithComponent("composite"),
		numWorkers: numWorkers,
	}
}

// Execute fills the canvas with the background colour and draws the frames
// row-major in temporal order. Frames beyond the layout's cell count are ignored.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (pipeline.CompositeResult, error) {
	layout := input.Layout
	n := min(len(input.Frames), len(layout.Cells))
	if n == 0 {
		return pipeline.CompositeResult{}, fmt.Errorf("%w: no frames to compose", pipeline.ErrNotFound)
	}
	if layout.Canvas.Width <= 0 || layout.Canvas.Height <= 0 {
		return pipeline.CompositeResult{}, fmt.Errorf("%w: invalid canvas %dx%d", pipeline.ErrInvalidRequest, layout.Canvas.Width, layout.Canvas.Height)
	}

	s.logger.Debug("Compositing %d frames into %dx%d grid with %d workers", n, layout.Cols, layout.Rows, s.numWorkers)

	cells, err := s.prepareCells(ctx, input.Frames[:n], layout.Cells[:n])
	if err != nil {
		return pipeline.CompositeResult{}, err
	}

	canvas := s.renderer.CreateCanvas(layout.Canvas.Width, layout.Canvas.Height, input.Background)
	for i, img := range cells {
		rect := layout.Cells[i]
		canvas.DrawImage(img, rect.X, rect.Y)
	}

	s.logger.Debug("Composition completed")
	return pipeline.CompositeResult{Image: canvas.ToImage()}, nil
}

// prepareCells scales every frame to its cell size using a worker pool.
// The result is indexed like frames.
func (s *Stage) prepareCells(ctx context.Context, frames []pipeline.FrameSample, rects []pipeline.Rectangle) ([]image.Image, error) {
	jobs := make(chan int, len(frames))
	out := make([]image.Image, len(frames))
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < min(s.numWorkers, len(frames)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					select {
					case errChan <- ctx.Err():
					default:
					}
					return
				default:
				}

				img, err := s.fitCell(frames[idx], rects[idx])
				if err != nil {
					select {
					case errChan <- fmt.Errorf("compose frame %d: %w", idx, err):
					default:
					}
					return
				}
				out[idx] = img
			}
		}()
	}

	for i := range frames {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Stage) fitCell(frame pipeline.FrameSample, rect pipeline.Rectangle) (image.Image, error) {
	if frame.Image == nil {
		return nil, fmt.Errorf("%w: missing frame image", pipeline.ErrDecode)
	}
	b := frame.Image.Bounds()
	if b.Dx() == rect.Width && b.Dy() == rect.Height && b.Min == (image.Point{}) {
		return frame.Image, nil
	}
	return s.renderer.ResizeImage(frame.Image, rect.Width, rect.Height), nil
}
