package ports

// FileSystem is the local storage used for CLI output, reports and debug dumps,
// and for opening local video files.
type FileSystem interface {
	// WriteFile replaces the file at path with data, creating parent directories.
	// Readers never observe a partially written file.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Open opens a regular file as a random-access ByteSource.
	// A missing path or a non-regular file wraps ErrSourceNotFound.
	Open(path string) (LocalSource, error)
}
