package osfilesystem

import (
	"context"
	"path"
	"path/filepath"

	"github.com/user/thumbextractor/pkg/ports"
)

// Opener resolves request paths against a root directory.
type Opener struct {
	root string
	fs   ports.FileSystem
}

// NewOpener creates an opener serving files below root.
func NewOpener(root string, fs ports.FileSystem) *Opener {
	return &Opener{root: root, fs: fs}
}

// Resolve maps a request path to a file path below the root.
// Dot segments cannot climb above the root.
func (o *Opener) Resolve(name string) string {
	clean := path.Clean("/" + name)
	return filepath.Join(o.root, filepath.FromSlash(clean))
}

// OpenSource implements ports.SourceOpener.
func (o *Opener) OpenSource(ctx context.Context, name string) (ports.ByteSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.fs.Open(o.Resolve(name))
}

var _ ports.SourceOpener = (*Opener)(nil)
