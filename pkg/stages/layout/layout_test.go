package layout

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/user/thumbextractor/pkg/pipeline"
)

func TestComputeGrid_TwoColumns(t *testing.T) {
	input := pipeline.LayoutInput{
		Tile:    pipeline.TileSpec{Cols: 2, SampleInterval: 5 * time.Second, Margin: 10, Padding: 4},
		Samples: 5,
		Cell:    pipeline.Dimension{Width: 160, Height: 90},
	}

	result, err := ComputeGrid(input)
	if err != nil {
		t.Fatalf("ComputeGrid failed: %v", err)
	}

	if result.Cols != 2 || result.Rows != 3 {
		t.Errorf("grid = %dx%d, want 2x3", result.Cols, result.Rows)
	}
	// 2*160 + 4 + 2*10
	if result.Canvas.Width != 344 {
		t.Errorf("canvas width = %d, want 344", result.Canvas.Width)
	}
	// 3*90 + 2*4 + 2*10
	if result.Canvas.Height != 298 {
		t.Errorf("canvas height = %d, want 298", result.Canvas.Height)
	}
	if result.Used != 5 || result.Dropped != 0 {
		t.Errorf("used/dropped = %d/%d, want 5/0", result.Used, result.Dropped)
	}
	if len(result.Cells) != 6 {
		t.Fatalf("cells = %d, want 6", len(result.Cells))
	}

	expected := []pipeline.Rectangle{
		{X: 10, Y: 10, Width: 160, Height: 90},
		{X: 174, Y: 10, Width: 160, Height: 90},
		{X: 10, Y: 104, Width: 160, Height: 90},
		{X: 174, Y: 104, Width: 160, Height: 90},
		{X: 10, Y: 198, Width: 160, Height: 90},
	}
	for i, want := range expected {
		if result.Cells[i] != want {
			t.Errorf("cells[%d] = %+v, want %+v", i, result.Cells[i], want)
		}
	}
}

func TestComputeGrid_Shapes(t *testing.T) {
	cell := pipeline.Dimension{Width: 100, Height: 50}

	tests := []struct {
		name        string
		tile        pipeline.TileSpec
		samples     int
		wantCols    int
		wantRows    int
		wantUsed    int
		wantDropped int
	}{
		{"cols only", pipeline.TileSpec{Cols: 3}, 7, 3, 3, 7, 0},
		{"cols capped by max rows", pipeline.TileSpec{Cols: 2, MaxRows: 2}, 9, 2, 2, 4, 5},
		{"cols with fewer samples", pipeline.TileSpec{Cols: 4}, 2, 4, 1, 2, 0},
		{"rows only", pipeline.TileSpec{Rows: 2}, 5, 3, 2, 5, 0},
		{"rows capped by max cols", pipeline.TileSpec{Rows: 2, MaxCols: 2}, 9, 2, 2, 4, 5},
		{"both fixed", pipeline.TileSpec{Cols: 3, Rows: 2}, 10, 3, 2, 6, 4},
		{"both fixed with room to spare", pipeline.TileSpec{Cols: 3, Rows: 3}, 4, 3, 3, 4, 0},
		{"caps only", pipeline.TileSpec{MaxCols: 4, MaxRows: 4}, 10, 4, 3, 10, 0},
		{"caps only square", pipeline.TileSpec{MaxCols: 8, MaxRows: 8}, 9, 3, 3, 9, 0},
		{"caps only truncated", pipeline.TileSpec{MaxCols: 2, MaxRows: 2}, 9, 2, 2, 4, 5},
		{"single sample", pipeline.TileSpec{MaxCols: 5}, 1, 1, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ComputeGrid(pipeline.LayoutInput{Tile: tt.tile, Samples: tt.samples, Cell: cell})
			if err != nil {
				t.Fatalf("ComputeGrid failed: %v", err)
			}
			if result.Cols != tt.wantCols || result.Rows != tt.wantRows {
				t.Errorf("grid = %dx%d, want %dx%d", result.Cols, result.Rows, tt.wantCols, tt.wantRows)
			}
			if result.Used != tt.wantUsed || result.Dropped != tt.wantDropped {
				t.Errorf("used/dropped = %d/%d, want %d/%d", result.Used, result.Dropped, tt.wantUsed, tt.wantDropped)
			}
			if len(result.Cells) != result.Cols*result.Rows {
				t.Errorf("cells = %d, want %d", len(result.Cells), result.Cols*result.Rows)
			}
			if result.Canvas.Width != result.Cols*cell.Width || result.Canvas.Height != result.Rows*cell.Height {
				t.Errorf("canvas = %+v without margin or padding", result.Canvas)
			}
		})
	}
}

func TestComputeGrid_NoSamples(t *testing.T) {
	_, err := ComputeGrid(pipeline.LayoutInput{
		Tile: pipeline.TileSpec{Cols: 2},
		Cell: pipeline.Dimension{Width: 100, Height: 100},
	})
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestComputeGrid_InvalidCell(t *testing.T) {
	_, err := ComputeGrid(pipeline.LayoutInput{Tile: pipeline.TileSpec{Cols: 2}, Samples: 3})
	if !errors.Is(err, pipeline.ErrInvalidRequest) {
		t.Fatalf("error = %v, want invalid request", err)
	}
}

func TestComputeGrid_CellsInsideCanvas(t *testing.T) {
	for cols := 1; cols <= 5; cols++ {
		for n := 1; n <= 12; n++ {
			result, err := ComputeGrid(pipeline.LayoutInput{
				Tile:    pipeline.TileSpec{Cols: cols, Margin: 7, Padding: 3},
				Samples: n,
				Cell:    pipeline.Dimension{Width: 32, Height: 18},
			})
			if err != nil {
				t.Fatalf("cols=%d n=%d: %v", cols, n, err)
			}
			last := result.Cells[len(result.Cells)-1]
			if last.X+last.Width+7 != result.Canvas.Width || last.Y+last.Height+7 != result.Canvas.Height {
				t.Errorf("cols=%d n=%d: last cell %+v does not meet canvas %+v minus margin", cols, n, last, result.Canvas)
			}
		}
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		tile pipeline.TileSpec
		want int
	}{
		{pipeline.TileSpec{Cols: 3, Rows: 2}, 6},
		{pipeline.TileSpec{Cols: 3, MaxRows: 4}, 12},
		{pipeline.TileSpec{Rows: 2, MaxCols: 5}, 10},
		{pipeline.TileSpec{MaxCols: 3, MaxRows: 3}, 9},
		{pipeline.TileSpec{Cols: 3}, 0},
		{pipeline.TileSpec{MaxCols: 3}, 0},
	}
	for _, tt := range tests {
		if got := Capacity(tt.tile); got != tt.want {
			t.Errorf("Capacity(%+v) = %d, want %d", tt.tile, got, tt.want)
		}
	}
}

func TestPlanSamples(t *testing.T) {
	sec := time.Second

	tests := []struct {
		name  string
		input pipeline.SamplePlanInput
		want  []time.Duration
	}{
		{
			name:  "until duration",
			input: pipeline.SamplePlanInput{Start: 12 * sec, Interval: 5 * sec, Duration: 30 * sec},
			want:  []time.Duration{12 * sec, 17 * sec, 22 * sec, 27 * sec},
		},
		{
			name:  "includes the last second",
			input: pipeline.SamplePlanInput{Start: 0, Interval: 10 * sec, Duration: 30 * sec},
			want:  []time.Duration{0, 10 * sec, 20 * sec, 30 * sec},
		},
		{
			name:  "bounded by capacity",
			input: pipeline.SamplePlanInput{Start: 0, Interval: 5 * sec, Duration: 120 * sec, Capacity: 3},
			want:  []time.Duration{0, 5 * sec, 10 * sec},
		},
		{
			name:  "default interval",
			input: pipeline.SamplePlanInput{Start: 0, Duration: 12 * sec},
			want:  []time.Duration{0, 5 * sec, 10 * sec},
		},
		{
			name:  "unknown duration",
			input: pipeline.SamplePlanInput{Start: 3 * sec, Interval: 5 * sec},
			want:  []time.Duration{3 * sec},
		},
		{
			name:  "start beyond duration",
			input: pipeline.SamplePlanInput{Start: 31 * sec, Interval: 5 * sec, Duration: 30 * sec},
			want:  nil,
		},
		{
			name:  "negative start",
			input: pipeline.SamplePlanInput{Start: -sec, Interval: 5 * sec, Duration: 30 * sec},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanSamples(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanSamples_Unbounded(t *testing.T) {
	got := PlanSamples(pipeline.SamplePlanInput{Interval: time.Millisecond, Duration: time.Hour})
	if len(got) != MaxSamples {
		t.Errorf("len = %d, want %d", len(got), MaxSamples)
	}
}

func TestSelect(t *testing.T) {
	samples := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name     string
		policy   TruncationPolicy
		capacity int
		want     []int
	}{
		{"keep earliest", TruncateKeepEarliest, 3, []int{1, 2, 3}},
		{"keep latest", TruncateKeepLatest, 3, []int{3, 4, 5}},
		{"fits", TruncateKeepLatest, 10, samples},
		{"unbounded", TruncateKeepEarliest, 0, samples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.policy, samples, tt.capacity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage()

	result, err := stage.Execute(context.Background(), pipeline.LayoutInput{
		Tile:    pipeline.TileSpec{Cols: 2, Rows: 2},
		Samples: 4,
		Cell:    pipeline.Dimension{Width: 64, Height: 36},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Canvas.Width != 128 || result.Canvas.Height != 72 {
		t.Errorf("canvas = %+v, want 128x72", result.Canvas)
	}
}
