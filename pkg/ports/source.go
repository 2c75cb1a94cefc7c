// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
	"io"
)

// ErrSourceNotFound is returned by a SourceOpener when the named resource does not exist.
var ErrSourceNotFound = errors.New("source: not found")

// ByteSource is a random-access view of a video resource.
// It is owned by exactly one render at a time.
type ByteSource interface {
	io.ReaderAt

	// Size returns the total size of the resource in bytes.
	Size() int64

	// Close releases the underlying handle.
	Close() error
}

// LocalSource is implemented by sources backed by a file on the local filesystem.
// Subprocess-based backends use the path directly instead of spooling the bytes.
type LocalSource interface {
	ByteSource

	// Path returns the absolute path of the backing file.
	Path() string
}

// SourceOpener resolves a resource name (usually the request path) to a ByteSource.
type SourceOpener interface {
	// OpenSource opens the named resource.
	// Returns an error wrapping ErrSourceNotFound if it does not exist.
	OpenSource(ctx context.Context, name string) (ByteSource, error)
}
