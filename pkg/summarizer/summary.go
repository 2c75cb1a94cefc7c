// Package summarizer builds human-readable reports of render results.
package summarizer

import (
	"time"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// Summary contains everything known about one render.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Source  SourceInfo
	Stream  StreamInfo
	Request RequestInfo
	Result  ResultInfo
}

// SourceInfo describes the input video.
type SourceInfo struct {
	Name    string
	Size    int64
	Backend string
}

// StreamInfo describes the selected video stream.
type StreamInfo struct {
	Geometry  ports.StreamGeometry
	Frames    int
	Keyframes int
}

// RequestInfo holds the effective request parameters.
type RequestInfo struct {
	Second       time.Duration
	Width        int
	Height       int
	KeyframeOnly bool
	PreferNext   bool
	Tile         pipeline.TileSpec
	JPEG         ports.JPEGOptions
}

// ResultInfo describes the outcome of the render.
type ResultInfo struct {
	Outcome   string
	Reason    string
	RenderID  string
	Output    pipeline.Dimension
	Positions []pipeline.SeekResult
	Layout    *pipeline.LayoutResult
	Bytes     int
	Elapsed   time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(name string, size int64, backend string) *Builder {
	b.summary.Source = SourceInfo{
		Name:    name,
		Size:    size,
		Backend: backend,
	}
	return b
}

// WithStream sets stream information from a frame index.
func (b *Builder) WithStream(geo ports.StreamGeometry, frames []ports.FrameInfo) *Builder {
	keyframes := 0
	for _, f := range frames {
		if f.Keyframe {
			keyframes++
		}
	}
	b.summary.Stream = StreamInfo{
		Geometry:  geo,
		Frames:    len(frames),
		Keyframes: keyframes,
	}
	return b
}

// WithRequest sets the request parameters.
func (b *Builder) WithRequest(req pipeline.RenderRequest) *Builder {
	b.summary.Request = RequestInfo{
		Second:       req.Second,
		Width:        req.Width,
		Height:       req.Height,
		KeyframeOnly: req.KeyframeOnly,
		PreferNext:   req.PreferNext,
		Tile:         req.Tile,
		JPEG:         req.JPEG,
	}
	return b
}

// WithOutcome sets the render result.
func (b *Builder) WithOutcome(outcome pipeline.RenderOutcome, elapsed time.Duration) *Builder {
	b.summary.Result = ResultInfo{
		Outcome:   outcome.Kind.String(),
		Reason:    outcome.Reason,
		RenderID:  outcome.Info.ID,
		Output:    outcome.Info.Output,
		Positions: outcome.Info.Positions,
		Layout:    outcome.Info.Layout,
		Bytes:     len(outcome.JPEG),
		Elapsed:   elapsed,
	}
	if outcome.Info.Geometry.CodedWidth > 0 && b.summary.Stream.Geometry.CodedWidth == 0 {
		b.summary.Stream.Geometry = outcome.Info.Geometry
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
