// Package layout implements the tile grid calculation stage.
package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/user/thumbextractor/pkg/pipeline"
)

// TruncationPolicy decides which samples survive when a grid cannot hold them all.
type TruncationPolicy int

const (
	// TruncateKeepEarliest keeps the earliest samples and drops the most recent ones.
	TruncateKeepEarliest TruncationPolicy = iota
	// TruncateKeepLatest keeps the most recent samples and drops the earliest ones.
	TruncateKeepLatest
)

// DefaultTruncation is the policy used when none is configured.
const DefaultTruncation = TruncateKeepEarliest

// MaxSamples bounds a sample plan whose grid capacity is unbounded.
const MaxSamples = 1024

// Stage calculates the grid for a contact sheet.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new layout stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute calculates the grid for the given number of samples.
func (s *Stage) Execute(ctx context.Context, input pipeline.LayoutInput) (pipeline.LayoutResult, error) {
	return ComputeGrid(input)
}

// Capacity returns how many samples a tile spec can hold, or 0 when unbounded.
func Capacity(tile pipeline.TileSpec) int {
	switch {
	case tile.Cols > 0 && tile.Rows > 0:
		return tile.Cols * tile.Rows
	case tile.Cols > 0 && tile.MaxRows > 0:
		return tile.Cols * tile.MaxRows
	case tile.Rows > 0 && tile.MaxCols > 0:
		return tile.Rows * tile.MaxCols
	case tile.Cols <= 0 && tile.Rows <= 0 && tile.MaxCols > 0 && tile.MaxRows > 0:
		return tile.MaxCols * tile.MaxRows
	}
	return 0
}

// PlanSamples returns the sample points start, start+interval, ... up to the duration.
// With an unknown duration only the start point is returned.
func PlanSamples(input pipeline.SamplePlanInput) []time.Duration {
	if input.Start < 0 {
		return nil
	}
	if input.Duration > 0 && input.Start > input.Duration {
		return nil
	}

	interval := input.Interval
	if interval <= 0 {
		interval = pipeline.DefaultSampleInterval
	}
	limit := input.Capacity
	if limit <= 0 || limit > MaxSamples {
		limit = MaxSamples
	}
	if input.Duration <= 0 {
		return []time.Duration{input.Start}
	}

	var points []time.Duration
	for t := input.Start; t <= input.Duration && len(points) < limit; t += interval {
		points = append(points, t)
	}
	return points
}

// ComputeGrid sizes the grid for input.Samples cells of input.Cell and positions each cell.
// This is exposed as a standalone function for testing and reuse.
func ComputeGrid(input pipeline.LayoutInput) (pipeline.LayoutResult, error) {
	n := input.Samples
	if n <= 0 {
		return pipeline.LayoutResult{}, fmt.Errorf("%w: no tile samples", pipeline.ErrNotFound)
	}
	if input.Cell.Width <= 0 || input.Cell.Height <= 0 {
		return pipeline.LayoutResult{}, fmt.Errorf("%w: invalid cell size %dx%d", pipeline.ErrInvalidRequest, input.Cell.Width, input.Cell.Height)
	}

	tile := input.Tile
	cols, rows := gridSize(tile, n)

	margin := max(tile.Margin, 0)
	padding := max(tile.Padding, 0)
	cell := input.Cell

	cells := make([]pipeline.Rectangle, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, pipeline.Rectangle{
				X:      margin + c*(cell.Width+padding),
				Y:      margin + r*(cell.Height+padding),
				Width:  cell.Width,
				Height: cell.Height,
			})
		}
	}

	used := min(n, cols*rows)
	return pipeline.LayoutResult{
		Cols: cols,
		Rows: rows,
		Cell: cell,
		Canvas: pipeline.Dimension{
			Width:  cols*cell.Width + (cols-1)*padding + 2*margin,
			Height: rows*cell.Height + (rows-1)*padding + 2*margin,
		},
		Cells:   cells,
		Used:    used,
		Dropped: n - used,
	}, nil
}

func gridSize(tile pipeline.TileSpec, n int) (cols, rows int) {
	switch {
	case tile.Cols > 0 && tile.Rows > 0:
		return tile.Cols, tile.Rows
	case tile.Cols > 0:
		return tile.Cols, capAt(ceilDiv(n, tile.Cols), tile.MaxRows)
	case tile.Rows > 0:
		return capAt(ceilDiv(n, tile.Rows), tile.MaxCols), tile.Rows
	}
	cols = capAt(int(math.Ceil(math.Sqrt(float64(n)))), tile.MaxCols)
	rows = capAt(ceilDiv(n, cols), tile.MaxRows)
	return cols, rows
}

// Select returns the samples that survive truncation to capacity.
func Select[T any](policy TruncationPolicy, samples []T, capacity int) []T {
	if capacity <= 0 || len(samples) <= capacity {
		return samples
	}
	if policy == TruncateKeepLatest {
		return samples[len(samples)-capacity:]
	}
	return samples[:capacity]
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func capAt(v, limit int) int {
	if limit > 0 && v > limit {
		return limit
	}
	return v
}
