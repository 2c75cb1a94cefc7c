// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/thumbextractor/pkg/ports"
)

// Sink saves debug output to files.
// The root sink only creates per-render sinks; each render writes below
// <baseDir>/<renderID>/.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// ForRender returns a sink writing below a directory named after the render.
func (s *Sink) ForRender(renderID string) ports.DebugSink {
	return &Sink{
		baseDir:  filepath.Join(s.baseDir, renderID),
		fs:       s.fs,
		renderer: s.renderer,
	}
}

// Dir returns the directory this sink writes to.
func (s *Sink) Dir() string {
	return s.baseDir
}

// SaveSeekJSON saves the resolved seek positions as JSON.
func (s *Sink) SaveSeekJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "seek.json"), data)
}

// SaveLayoutJSON saves the tile grid calculation result as JSON.
func (s *Sink) SaveLayoutJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "layout.json"), data)
}

// SaveFrame saves a decoded, display-normalized frame as PNG.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), data)
}

// SaveOutput saves the final encoded image.
func (s *Sink) SaveOutput(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "output.jpg"), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
