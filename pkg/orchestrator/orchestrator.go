// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
	"github.com/user/thumbextractor/pkg/stages/encode"
	"github.com/user/thumbextractor/pkg/stages/layout"
	"github.com/user/thumbextractor/pkg/stages/sizing"
)

// State is a step of the render state machine.
type State int

const (
	StateInspecting State = iota
	StateSeeking
	StateDecoding
	StateSizing
	StateTiling
	StateEncoding
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInspecting:
		return "inspecting"
	case StateSeeking:
		return "seeking"
	case StateDecoding:
		return "decoding"
	case StateSizing:
		return "sizing"
	case StateTiling:
		return "tiling"
	case StateEncoding:
		return "encoding"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Orchestrator runs one render through the stages:
// Inspecting → Seeking → Decoding → Sizing → (Tiling) → Encoding → Done.
// Any state may fail, and a failure is final for that render.
type Orchestrator struct {
	prober         ports.ContainerProber
	seekStage      pipeline.Stage[pipeline.SeekInput, pipeline.SeekResult]
	decodeStage    pipeline.Stage[pipeline.DecodeInput, pipeline.FrameSample]
	layoutStage    pipeline.Stage[pipeline.LayoutInput, pipeline.LayoutResult]
	compositeStage pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult]
	encodeStage    pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	renderer       ports.Renderer
	sink           ports.DebugSink
	logger         ports.Logger
	truncation     layout.TruncationPolicy
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTruncation sets which tile samples are kept when more sample points
// fall inside the stream than the grid can hold.
func WithTruncation(policy layout.TruncationPolicy) Option {
	return func(o *Orchestrator) {
		o.truncation = policy
	}
}

// New creates a new Orchestrator.
func New(
	prober ports.ContainerProber,
	seekStage pipeline.Stage[pipeline.SeekInput, pipeline.SeekResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.FrameSample],
	layoutStage pipeline.Stage[pipeline.LayoutInput, pipeline.LayoutResult],
	compositeStage pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	renderer ports.Renderer,
	sink ports.DebugSink,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		prober:         prober,
		seekStage:      pipeline.Named("seek", seekStage),
		decodeStage:    pipeline.Named("decode", decodeStage),
		layoutStage:    pipeline.Named("layout", layoutStage),
		compositeStage: pipeline.Named("composite", compositeStage),
		encodeStage:    pipeline.Named("encode", encodeStage),
		renderer:       renderer,
		sink:           sink,
		logger:         logger.WithComponent("orchestrator"),
		truncation:     layout.DefaultTruncation,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// render carries the per-call state of one render.
type render struct {
	id    string
	state State
	sink  ports.DebugSink
	info  pipeline.RenderInfo
	start time.Time
}

// Render produces a JPEG for the request. It never returns an error:
// every failure is classified into the returned outcome.
// The source is read but not closed.
func (o *Orchestrator) Render(ctx context.Context, src ports.ByteSource, req pipeline.RenderRequest) pipeline.RenderOutcome {
	r := &render{id: uuid.NewString(), sink: o.sink, start: time.Now()}
	if o.sink.Enabled() {
		r.sink = o.sink.ForRender(r.id)
	}
	r.info.ID = r.id

	data, err := o.run(ctx, r, src, req)
	r.info.State = r.state.String()
	if err != nil {
		outcome := pipeline.Classify(err)
		outcome.Info = r.info
		o.logger.Debug("Render %s failed while %s: %s (%s)", r.id, r.state, outcome.Kind, err)
		return outcome
	}

	o.logger.Debug("Render %s completed in %s: %d bytes", r.id, time.Since(r.start).Round(time.Millisecond), len(data))
	return pipeline.Success(data, r.info)
}

func (o *Orchestrator) enter(r *render, s State) {
	r.state = s
	o.logger.Debug("Render %s: %s", r.id, s)
}

func (o *Orchestrator) run(ctx context.Context, r *render, src ports.ByteSource, req pipeline.RenderRequest) ([]byte, error) {
	// Cheap request checks come before any byte of the source is read.
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no source", ports.ErrSourceNotFound)
	}

	// 1. Inspecting
	o.enter(r, StateInspecting)
	container, err := o.prober.Open(ctx, src)
	if err != nil {
		return nil, inspectError(err)
	}
	defer container.Close()

	geo := container.Geometry()
	frames := container.Frames()
	r.info.Geometry = geo
	o.logger.Debug("Stream %dx%d, sar %d:%d, rotation %d, duration %s, %d frames",
		geo.CodedWidth, geo.CodedHeight, geo.SampleAspectRatio.Num, geo.SampleAspectRatio.Den,
		geo.RotationDegrees, geo.Duration, len(frames))

	// 2. Seeking
	o.enter(r, StateSeeking)
	positions, err := o.resolvePositions(ctx, req, geo, frames)
	if err != nil {
		return nil, err
	}
	r.info.Positions = positions
	if r.sink.Enabled() {
		if data, err := json.MarshalIndent(positions, "", "  "); err == nil {
			r.sink.SaveSeekJSON(data)
		}
	}

	// 3. Decoding
	o.enter(r, StateDecoding)
	samples, err := o.decodeSamples(ctx, r, container, positions)
	if err != nil {
		return nil, err
	}

	// 4. Sizing
	o.enter(r, StateSizing)
	native := pipeline.Dimension{Width: samples[0].Width, Height: samples[0].Height}
	out, err := sizing.Resolve(req.Width, req.Height, native)
	if err != nil {
		return nil, fmt.Errorf("sizing stage: %w", err)
	}
	r.info.Output = out

	img := samples[0].Image
	display := native
	if req.Tile.Enabled() {
		// 5. Tiling
		o.enter(r, StateTiling)
		grid, err := o.layoutStage.Execute(ctx, pipeline.LayoutInput{Tile: req.Tile, Samples: len(samples), Cell: out})
		if err != nil {
			return nil, err
		}
		if grid.Dropped > 0 {
			o.logger.Debug("Dropping %d of %d tile samples", grid.Dropped, len(samples))
		}
		r.info.Layout = &grid
		if r.sink.Enabled() {
			if data, err := json.MarshalIndent(grid, "", "  "); err == nil {
				r.sink.SaveLayoutJSON(data)
			}
		}

		composite, err := o.compositeStage.Execute(ctx, pipeline.CompositeInput{
			Frames:     layout.Select(o.truncation, samples, grid.Used),
			Layout:     grid,
			Background: req.Tile.Background,
		})
		if err != nil {
			return nil, err
		}
		img = composite.Image
		display = grid.Canvas
	} else if out != native {
		img = o.renderer.ResizeImage(img, out.Width, out.Height)
	}

	// 6. Encoding
	o.enter(r, StateEncoding)
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Image:   img,
		Options: req.JPEG,
		Display: display,
	})
	if err != nil {
		return nil, err
	}
	if r.sink.Enabled() {
		r.sink.SaveOutput(encoded.Data)
	}

	o.enter(r, StateDone)
	return encoded.Data, nil
}

// resolvePositions seeks the requested second and, when tiling, every later sample point.
// The first point must resolve. A later point that cannot be resolved ends sampling.
// Positions beyond the grid capacity are truncated by policy before anything is decoded.
func (o *Orchestrator) resolvePositions(ctx context.Context, req pipeline.RenderRequest, geo ports.StreamGeometry, frames []ports.FrameInfo) ([]pipeline.SeekResult, error) {
	points := []time.Duration{req.Second}
	capacity := 0
	if req.Tile.Enabled() {
		capacity = layout.Capacity(req.Tile)
		planned := capacity
		if o.truncation == layout.TruncateKeepLatest {
			planned = 0
		}
		points = layout.PlanSamples(pipeline.SamplePlanInput{
			Start:    req.Second,
			Interval: req.Tile.SampleInterval,
			Duration: samplingDuration(geo, frames),
			Capacity: planned,
		})
		if len(points) == 0 {
			points = []time.Duration{req.Second}
		}
	}

	positions := make([]pipeline.SeekResult, 0, len(points))
	for i, at := range points {
		pos, err := o.seekStage.Execute(ctx, pipeline.SeekInput{
			Duration: geo.Duration,
			Frames:   frames,
			Request:  req.SeekRequest(at),
		})
		if err != nil {
			if i > 0 && errors.Is(err, pipeline.ErrNotFound) {
				o.logger.Debug("Sampling stopped at %s: %s", at, err)
				break
			}
			return nil, err
		}
		positions = append(positions, pos)
	}
	return layout.Select(o.truncation, positions, capacity), nil
}

// decodeSamples decodes every position. Positions that share a frame are decoded once.
func (o *Orchestrator) decodeSamples(ctx context.Context, r *render, container ports.Container, positions []pipeline.SeekResult) ([]pipeline.FrameSample, error) {
	decoded := make(map[int]pipeline.FrameSample, len(positions))
	samples := make([]pipeline.FrameSample, 0, len(positions))

	for i, pos := range positions {
		sample, ok := decoded[pos.Index]
		if !ok {
			var err error
			sample, err = o.decodeStage.Execute(ctx, pipeline.DecodeInput{Container: container, Position: pos})
			if err != nil {
				return nil, err
			}
			decoded[pos.Index] = sample
		}
		if r.sink.Enabled() {
			r.sink.SaveFrame(i, sample.Image)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func validateRequest(req pipeline.RenderRequest) error {
	if req.Second < 0 {
		return fmt.Errorf("%w: negative second %s", pipeline.ErrInvalidRequest, req.Second)
	}
	if err := sizing.Validate(req.Width, req.Height); err != nil {
		return err
	}
	if err := encode.ValidateOptions(req.JPEG); err != nil {
		return err
	}
	t := req.Tile
	if t.Cols < 0 || t.Rows < 0 || t.MaxCols < 0 || t.MaxRows < 0 || t.Margin < 0 || t.Padding < 0 || t.SampleInterval < 0 {
		return fmt.Errorf("%w: negative tile parameter", pipeline.ErrInvalidRequest)
	}
	return nil
}

// inspectError classifies a prober failure. A missing source stays NotFound;
// everything else is a decode failure.
func inspectError(err error) error {
	if errors.Is(err, ports.ErrSourceNotFound) || errors.Is(err, pipeline.ErrDecode) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("inspect: %w", err)
	}
	return fmt.Errorf("inspect: %w: %v", pipeline.ErrDecode, err)
}

// samplingDuration is the stream duration, or the last frame's PTS when the duration is unknown.
func samplingDuration(geo ports.StreamGeometry, frames []ports.FrameInfo) time.Duration {
	if geo.Duration > 0 {
		return geo.Duration
	}
	if len(frames) > 0 {
		return frames[len(frames)-1].PTS
	}
	return 0
}
