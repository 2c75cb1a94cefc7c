package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/user/thumbextractor/pkg/ports"
)

// Error kinds. Stages wrap their failures with one of these so the
// orchestrator can classify them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrDecode         = errors.New("decode failure")
	ErrEncode         = errors.New("encode failure")
)

// OutcomeKind tags a RenderOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeInvalidRequest
	OutcomeDecodeFailure
	OutcomeEncodeFailure
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalidRequest:
		return "invalid_request"
	case OutcomeDecodeFailure:
		return "decode_failure"
	case OutcomeEncodeFailure:
		return "encode_failure"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the outcome to the status code the host responds with.
func (k OutcomeKind) HTTPStatus() int {
	switch k {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RenderInfo records what a render resolved, for reports and debugging.
type RenderInfo struct {
	ID        string
	State     string // last state reached: "done" or the state that failed
	Geometry  ports.StreamGeometry
	Positions []SeekResult
	Output    Dimension
	Layout    *LayoutResult
}

// RenderOutcome is the tagged result of one render.
type RenderOutcome struct {
	Kind   OutcomeKind
	JPEG   []byte // set only on success
	Reason string // set on failures
	Info   RenderInfo
}

// Success builds a successful outcome.
func Success(data []byte, info RenderInfo) RenderOutcome {
	return RenderOutcome{Kind: OutcomeSuccess, JPEG: data, Info: info}
}

// Classify converts a stage error into a failed outcome.
// Errors without a known kind are treated as decode failures.
func Classify(err error) RenderOutcome {
	kind := OutcomeDecodeFailure
	switch {
	case errors.Is(err, ErrInvalidRequest):
		kind = OutcomeInvalidRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ports.ErrSourceNotFound):
		kind = OutcomeNotFound
	case errors.Is(err, ErrEncode):
		kind = OutcomeEncodeFailure
	case errors.Is(err, ErrDecode), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = OutcomeDecodeFailure
	}
	return RenderOutcome{Kind: kind, Reason: err.Error()}
}
