package pipeline

import (
	"image"
	"image/color"
	"time"

	"github.com/user/thumbextractor/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Point returns the dimension as an image.Point.
func (d Dimension) Point() image.Point {
	return image.Point{X: d.Width, Y: d.Height}
}

// Rectangle represents a rectangular area.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// =============================================================================
// Request Types
// =============================================================================

// MinDimension is the smallest explicitly requested output width or height.
const MinDimension = 16

// DefaultSampleInterval is the tile sample interval used when none is configured.
const DefaultSampleInterval = 5 * time.Second

// RenderRequest is the immutable descriptor of one render call.
type RenderRequest struct {
	Second       time.Duration
	KeyframeOnly bool
	PreferNext   bool
	Width        int // <= 0 means not given
	Height       int // <= 0 means not given
	Tile         TileSpec
	JPEG         ports.JPEGOptions
}

// SeekRequest returns the seek parameters for the given target time.
func (r RenderRequest) SeekRequest(target time.Duration) SeekRequest {
	return SeekRequest{
		Target:       target,
		KeyframeOnly: r.KeyframeOnly,
		PreferNext:   r.PreferNext,
	}
}

// DefaultJPEGOptions returns the encoder defaults: baseline, optimized Huffman tables, quality 75, 72 dpi.
func DefaultJPEGOptions() ports.JPEGOptions {
	return ports.JPEGOptions{
		Baseline:        true,
		Progressive:     false,
		OptimizeHuffman: true,
		Smoothing:       0,
		Quality:         75,
		DPI:             72,
	}
}

// TileSpec configures contact-sheet rendering. Zero counts mean "not given".
type TileSpec struct {
	Cols           int
	Rows           int
	MaxCols        int
	MaxRows        int
	SampleInterval time.Duration
	Margin         int
	Padding        int
	Background     color.RGBA
}

// DefaultTileSpec returns a disabled TileSpec with the default interval and a black background.
func DefaultTileSpec() TileSpec {
	return TileSpec{
		SampleInterval: DefaultSampleInterval,
		Background:     color.RGBA{A: 255},
	}
}

// Enabled reports whether any grid parameter is present.
func (t TileSpec) Enabled() bool {
	return t.Cols > 0 || t.Rows > 0 || t.MaxCols > 0 || t.MaxRows > 0
}

// =============================================================================
// Seek Stage Types
// =============================================================================

// SeekRequest describes the timestamp and keyframe policy for one frame.
type SeekRequest struct {
	Target       time.Duration
	KeyframeOnly bool
	PreferNext   bool
}

// SeekInput contains the stream facts needed to resolve a seek.
type SeekInput struct {
	Duration time.Duration
	Frames   []ports.FrameInfo
	Request  SeekRequest
}

// SeekResult is a resolved, decodable frame position.
type SeekResult struct {
	Index    int           `json:"index"`
	PTS      time.Duration `json:"pts"`
	Keyframe bool          `json:"keyframe"`
	Target   time.Duration `json:"target"`
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput identifies the frame to decode.
type DecodeInput struct {
	Container ports.Container
	Position  SeekResult
}

// FrameSample is a decoded frame in display space.
type FrameSample struct {
	Image  image.Image
	Width  int
	Height int
	PTS    time.Duration
}

// =============================================================================
// Layout Stage Types
// =============================================================================

// SamplePlanInput describes the time range to sample for a tile grid.
type SamplePlanInput struct {
	Start    time.Duration
	Interval time.Duration
	Duration time.Duration
	Capacity int // 0 means unbounded
}

// LayoutInput contains parameters for tile grid calculation.
type LayoutInput struct {
	Tile    TileSpec
	Samples int
	Cell    Dimension
}

// LayoutResult contains the computed grid and cell positions.
type LayoutResult struct {
	Cols    int         `json:"cols"`
	Rows    int         `json:"rows"`
	Cell    Dimension   `json:"cell"`
	Canvas  Dimension   `json:"canvas"`
	Cells   []Rectangle `json:"cells"`   // row-major, len == Cols*Rows
	Used    int         `json:"used"`    // samples drawn
	Dropped int         `json:"dropped"` // samples truncated by caps
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// CompositeInput contains the frames and layout to compose.
type CompositeInput struct {
	Frames     []FrameSample
	Layout     LayoutResult
	Background color.Color
}

// CompositeResult contains the composed canvas.
type CompositeResult struct {
	Image image.Image
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains the bitmap and options for JPEG encoding.
type EncodeInput struct {
	Image   image.Image
	Options ports.JPEGOptions
	Display Dimension // display aspect of the source, for JFIF density
}

// EncodeResult contains the encoded image.
type EncodeResult struct {
	Data   []byte
	Width  int
	Height int
}
