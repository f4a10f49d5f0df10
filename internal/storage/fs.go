package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

const filePerms = 0o644

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to tikibase directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute tikibase directory.
func (f *FS) Root() string {
	return f.root
}

// Abs resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (f *FS) Abs(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes tikibase root: %s", rel)
	}
	return abs, nil
}

// ReadDir lists the entries of dir sorted by name.
// Symlinks are followed to decide whether an entry is a directory.
func (f *FS) ReadDir(dir string) ([]Entry, error) {
	abs, err := f.Abs(dir)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir %s: %w", dir, err)
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		isDir := it.IsDir()
		if it.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(abs, it.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		out = append(out, Entry{Name: it.Name(), IsDir: isDir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Read returns the raw bytes of a tikibase file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces path with content through a temp file and rename, so
// readers never observe a half-written document.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	_, statErr := os.Stat(abs)
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	// atomic.WriteFile keeps the mode of replaced files only
	if os.IsNotExist(statErr) {
		if err := os.Chmod(abs, filePerms); err != nil {
			return fmt.Errorf("storage: chmod %s: %w", path, err)
		}
	}
	return nil
}

// Exists reports whether path exists inside the root.
func (f *FS) Exists(path string) bool {
	abs, err := f.Abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
