// Package storage defines the tikibase file-system abstraction.
package storage

// Entry is one item of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the interface for tikibase file operations.
// All paths are slash separated and relative to the tikibase root.
type Provider interface {
	// Root returns the absolute path of the tikibase root.
	Root() string
	// Abs resolves path to an absolute path inside the root.
	Abs(path string) (string, error)
	// ReadDir lists dir, sorted by name.
	ReadDir(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
}
