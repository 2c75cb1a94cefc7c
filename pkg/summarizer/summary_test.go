package summarizer

import (
	"testing"
	"time"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithSource(t *testing.T) {
	summary := NewBuilder().
		WithSource("clip.mp4", 2048, "mp4").
		Build()

	if summary.Source.Name != "clip.mp4" {
		t.Errorf("expected name 'clip.mp4', got '%s'", summary.Source.Name)
	}
	if summary.Source.Size != 2048 {
		t.Errorf("expected size 2048, got %d", summary.Source.Size)
	}
	if summary.Source.Backend != "mp4" {
		t.Errorf("expected backend 'mp4', got '%s'", summary.Source.Backend)
	}
}

func TestBuilder_WithStream(t *testing.T) {
	frames := []ports.FrameInfo{
		{PTS: 0, Keyframe: true},
		{PTS: 40 * time.Millisecond},
		{PTS: 80 * time.Millisecond},
		{PTS: 120 * time.Millisecond, Keyframe: true},
	}
	geo := ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360}

	summary := NewBuilder().WithStream(geo, frames).Build()

	if summary.Stream.Frames != 4 {
		t.Errorf("expected 4 frames, got %d", summary.Stream.Frames)
	}
	if summary.Stream.Keyframes != 2 {
		t.Errorf("expected 2 keyframes, got %d", summary.Stream.Keyframes)
	}
}

func TestBuilder_WithRequest(t *testing.T) {
	req := pipeline.RenderRequest{
		Second:       12 * time.Second,
		Width:        320,
		KeyframeOnly: true,
		Tile:         pipeline.TileSpec{Cols: 2},
		JPEG:         pipeline.DefaultJPEGOptions(),
	}

	summary := NewBuilder().WithRequest(req).Build()

	if summary.Request.Second != 12*time.Second {
		t.Errorf("expected second 12s, got %s", summary.Request.Second)
	}
	if summary.Request.Width != 320 || summary.Request.Height != 0 {
		t.Errorf("expected 320x0, got %dx%d", summary.Request.Width, summary.Request.Height)
	}
	if !summary.Request.KeyframeOnly || summary.Request.PreferNext {
		t.Error("seek flags not copied")
	}
	if summary.Request.Tile.Cols != 2 {
		t.Errorf("expected 2 tile cols, got %d", summary.Request.Tile.Cols)
	}
}

func TestBuilder_WithOutcome(t *testing.T) {
	geo := ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360}
	outcome := pipeline.Success([]byte{1, 2, 3}, pipeline.RenderInfo{
		ID:       "render-1",
		Geometry: geo,
		Output:   pipeline.Dimension{Width: 480, Height: 270},
		Positions: []pipeline.SeekResult{
			{Index: 300, PTS: 12 * time.Second, Keyframe: true, Target: 12 * time.Second},
		},
	})

	summary := NewBuilder().WithOutcome(outcome, 150*time.Millisecond).Build()

	res := summary.Result
	if res.Outcome != "success" {
		t.Errorf("expected outcome 'success', got '%s'", res.Outcome)
	}
	if res.RenderID != "render-1" {
		t.Errorf("expected render ID 'render-1', got '%s'", res.RenderID)
	}
	if res.Bytes != 3 {
		t.Errorf("expected 3 bytes, got %d", res.Bytes)
	}
	if len(res.Positions) != 1 {
		t.Errorf("expected 1 position, got %d", len(res.Positions))
	}
	if summary.Stream.Geometry != geo {
		t.Error("geometry should be taken from the outcome when no stream was set")
	}
}

func TestBuilder_Chaining(t *testing.T) {
	summary := NewBuilder().
		WithSource("clip.mp4", 1024, "ffprobe").
		WithRequest(pipeline.RenderRequest{Second: time.Second}).
		WithOutcome(pipeline.RenderOutcome{Kind: pipeline.OutcomeNotFound, Reason: "beyond duration"}, 0).
		Build()

	if summary.Source.Backend != "ffprobe" {
		t.Error("Source.Backend not set correctly")
	}
	if summary.Request.Second != time.Second {
		t.Error("Request.Second not set correctly")
	}
	if summary.Result.Outcome != "not_found" {
		t.Error("Result.Outcome not set correctly")
	}
	if summary.Result.Reason != "beyond duration" {
		t.Error("Result.Reason not set correctly")
	}
}
