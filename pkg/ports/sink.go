package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate render results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// ForRender returns a sink scoped to a single render.
	ForRender(renderID string) DebugSink

	// SaveSeekJSON saves the resolved seek positions as JSON.
	SaveSeekJSON(data []byte) error

	// SaveLayoutJSON saves the tile grid calculation result as JSON.
	SaveLayoutJSON(data []byte) error

	// SaveFrame saves a decoded, display-normalized frame.
	SaveFrame(index int, img image.Image) error

	// SaveOutput saves the final encoded image.
	SaveOutput(data []byte) error
}
