// Package seek implements the seek resolution stage.
package seek

import (
	"context"
	"fmt"
	"sort"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// Stage maps a requested timestamp and keyframe policy to a decodable frame.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new seek stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute resolves the seek request against the stream's frame index.
func (s *Stage) Execute(ctx context.Context, input pipeline.SeekInput) (pipeline.SeekResult, error) {
	return Resolve(input)
}

// Resolve picks the frame to decode for the request.
//
// A target past the stream duration is not found. In keyframe-only mode the
// keyframe at or before the target is used, or with PreferNext the keyframe
// at or after it; the next-time policy never falls back to an earlier
// keyframe. Otherwise the frame whose presentation time is nearest the
// target is used, ties going to the earlier frame.
func Resolve(input pipeline.SeekInput) (pipeline.SeekResult, error) {
	frames := input.Frames
	req := input.Request

	if req.Target < 0 {
		return pipeline.SeekResult{}, fmt.Errorf("%w: negative seek target %s", pipeline.ErrInvalidRequest, req.Target)
	}
	if input.Duration > 0 && req.Target > input.Duration {
		return pipeline.SeekResult{}, fmt.Errorf("%w: second %s beyond duration %s", pipeline.ErrNotFound, req.Target, input.Duration)
	}
	if len(frames) == 0 {
		return pipeline.SeekResult{}, fmt.Errorf("%w: stream has no frames", pipeline.ErrDecode)
	}

	// First frame presented at or after the target.
	at := sort.Search(len(frames), func(i int) bool {
		return frames[i].PTS >= req.Target
	})

	var idx int
	switch {
	case req.KeyframeOnly && req.PreferNext:
		idx = -1
		for i := at; i < len(frames); i++ {
			if frames[i].Keyframe {
				idx = i
				break
			}
		}
		if idx < 0 {
			return pipeline.SeekResult{}, fmt.Errorf("%w: no keyframe at or after %s", pipeline.ErrNotFound, req.Target)
		}
		if input.Duration > 0 && frames[idx].PTS > input.Duration {
			return pipeline.SeekResult{}, fmt.Errorf("%w: next keyframe %s beyond duration %s", pipeline.ErrNotFound, frames[idx].PTS, input.Duration)
		}

	case req.KeyframeOnly:
		idx = previousKeyframe(frames, at, req)
		if idx < 0 {
			return pipeline.SeekResult{}, fmt.Errorf("%w: stream has no keyframes", pipeline.ErrDecode)
		}

	default:
		idx = nearest(frames, at, req)
	}

	return pipeline.SeekResult{
		Index:    idx,
		PTS:      frames[idx].PTS,
		Keyframe: frames[idx].Keyframe,
		Target:   req.Target,
	}, nil
}

// previousKeyframe returns the last keyframe presented at or before the target.
// A target before the first keyframe resolves to the first keyframe.
func previousKeyframe(frames []ports.FrameInfo, at int, req pipeline.SeekRequest) int {
	start := at
	if start < len(frames) && frames[start].PTS == req.Target {
		start++
	}
	for i := start - 1; i >= 0; i-- {
		if frames[i].Keyframe {
			return i
		}
	}
	for i := range frames {
		if frames[i].Keyframe {
			return i
		}
	}
	return -1
}

func nearest(frames []ports.FrameInfo, at int, req pipeline.SeekRequest) int {
	if at == len(frames) {
		return len(frames) - 1
	}
	if at == 0 {
		return 0
	}
	before := req.Target - frames[at-1].PTS
	after := frames[at].PTS - req.Target
	if after < before {
		return at
	}
	return at - 1
}
