package decode

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/mocks"
	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

func TestStage_Execute(t *testing.T) {
	tests := []struct {
		name       string
		geo        ports.StreamGeometry
		wantW      int
		wantH      int
		wantResize int
		wantRotate int
	}{
		{"square pixels", ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360}, 640, 360, 0, 0},
		{"anamorphic", ports.StreamGeometry{CodedWidth: 720, CodedHeight: 576, SampleAspectRatio: ports.Ratio{Num: 16, Den: 11}}, 1047, 576, 1, 0},
		{"narrow pixels", ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360, SampleAspectRatio: ports.Ratio{Num: 1, Den: 2}}, 640, 720, 1, 0},
		{"portrait phone video", ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360, RotationDegrees: 90}, 360, 640, 0, 1},
		{"upside down", ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360, RotationDegrees: 180}, 640, 360, 0, 1},
		{"stretch then rotate", ports.StreamGeometry{CodedWidth: 100, CodedHeight: 50, SampleAspectRatio: ports.Ratio{Num: 2, Den: 1}, RotationDegrees: 270}, 50, 200, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.geo.Duration = 2 * time.Second
			container := mocks.NewContainer(tt.geo, 40*time.Millisecond, 25)
			renderer := &mocks.Renderer{}
			stage := NewStage(renderer, logger.NewNoop())

			sample, err := stage.Execute(context.Background(), pipeline.DecodeInput{
				Container: container,
				Position:  pipeline.SeekResult{Index: 3, PTS: 120 * time.Millisecond},
			})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			if sample.Width != tt.wantW || sample.Height != tt.wantH {
				t.Errorf("sample = %dx%d, want %dx%d", sample.Width, sample.Height, tt.wantW, tt.wantH)
			}
			if b := sample.Image.Bounds(); b.Dx() != sample.Width || b.Dy() != sample.Height {
				t.Errorf("image bounds %v disagree with sample size", b)
			}
			if wantW, wantH := tt.geo.DisplaySize(); wantW != sample.Width || wantH != sample.Height {
				t.Errorf("sample disagrees with geometry display size %dx%d", wantW, wantH)
			}
			if sample.PTS != 120*time.Millisecond {
				t.Errorf("PTS = %s", sample.PTS)
			}
			if len(renderer.ResizeCalls) != tt.wantResize {
				t.Errorf("resize calls = %d, want %d", len(renderer.ResizeCalls), tt.wantResize)
			}
			if len(renderer.RotateCalls) != tt.wantRotate {
				t.Errorf("rotate calls = %d, want %d", len(renderer.RotateCalls), tt.wantRotate)
			}
			if len(container.DecodeCalls) != 1 || container.DecodeCalls[0] != 3 {
				t.Errorf("decode calls = %v, want [3]", container.DecodeCalls)
			}
		})
	}
}

func TestStage_Execute_DecodeFailure(t *testing.T) {
	container := mocks.NewContainer(ports.StreamGeometry{CodedWidth: 64, CodedHeight: 64, Duration: time.Second}, 40*time.Millisecond, 1)
	container.DecodeFrameFunc = func(ctx context.Context, index int) (image.Image, error) {
		return nil, errors.New("corrupt slice")
	}
	stage := NewStage(&mocks.Renderer{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.DecodeInput{Container: container})
	if !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("error = %v, want decode failure", err)
	}
}

func TestStage_Execute_EmptyImage(t *testing.T) {
	container := mocks.NewContainer(ports.StreamGeometry{CodedWidth: 64, CodedHeight: 64, Duration: time.Second}, 40*time.Millisecond, 1)
	container.DecodeFrameFunc = func(ctx context.Context, index int) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	stage := NewStage(&mocks.Renderer{}, logger.NewNoop())

	if _, err := stage.Execute(context.Background(), pipeline.DecodeInput{Container: container}); !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("error = %v, want decode failure", err)
	}
}

func TestStage_Execute_NoContainer(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, logger.NewNoop())
	if _, err := stage.Execute(context.Background(), pipeline.DecodeInput{}); !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("error = %v, want decode failure", err)
	}
}
