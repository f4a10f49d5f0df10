package tree

import (
	"errors"
	"path"
	"strings"
)

// ErrPathEscapesRoot is returned when a path ascends above the tikibase root.
var ErrPathEscapesRoot = errors.New("path escapes the tikibase root")

// EntryType classifies a file or link target.
type EntryType int

const (
	EntryDocument EntryType = iota + 1
	EntryResource
	EntryDirectory
	EntryConfiguration
	EntryIgnored
)

func (t EntryType) String() string {
	switch t {
	case EntryDocument:
		return "document"
	case EntryResource:
		return "resource"
	case EntryDirectory:
		return "directory"
	case EntryConfiguration:
		return "configuration"
	case EntryIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Normalize collapses "." and ".." segments of a slash separated relative path.
func Normalize(p string) (string, error) {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/"), nil
}

// Classify determines the entry type of p by its name alone.
// Names without an extension are taken to be directories.
func Classify(p string) EntryType {
	name := path.Base(p)
	switch {
	case p == "" || p == ".":
		return EntryDirectory
	case name == ConfigFileName:
		return EntryConfiguration
	case strings.HasPrefix(name, "."):
		return EntryIgnored
	case strings.HasSuffix(name, ".md"):
		return EntryDocument
	case path.Ext(name) == "":
		return EntryDirectory
	default:
		return EntryResource
	}
}

// Join resolves target relative to the directory dir and normalizes the result.
func Join(dir, target string) (string, error) {
	if dir == "" {
		return Normalize(target)
	}
	return Normalize(dir + "/" + target)
}

// Dir returns the directory part of a root-relative path, "" for the root.
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// RelativePath returns the path that links from a document at from to the file at to.
func RelativePath(from, to string) string {
	fromDir := strings.Split(Dir(from), "/")
	if fromDir[0] == "" {
		fromDir = nil
	}
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromDir) && common < len(toParts)-1 && fromDir[common] == toParts[common] {
		common++
	}
	parts := make([]string, 0, len(fromDir)-common+len(toParts)-common)
	for range fromDir[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	return strings.Join(parts, "/")
}
