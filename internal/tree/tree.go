// Package tree loads a tikibase directory into memory.
package tree

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/storage"
)

// Resource is a tracked file that is not a document.
type Resource struct {
	Path string
}

// Directory is one directory of the tikibase with its merged configuration.
type Directory struct {
	// Path is relative to the root, "" for the root itself.
	Path      string
	Config    Config
	Dirs      map[string]*Directory
	Docs      map[string]*document.Document
	Resources map[string]Resource
}

func newDirectory(p string, cfg Config) *Directory {
	return &Directory{
		Path:      p,
		Config:    cfg,
		Dirs:      make(map[string]*Directory),
		Docs:      make(map[string]*document.Document),
		Resources: make(map[string]Resource),
	}
}

// Load reads the whole tikibase depth-first. Problems are collected as
// issues; affected documents or subtrees are left out of the result.
func Load(store storage.Provider) (*Directory, []issue.Issue) {
	var issues []issue.Issue
	root := load(store, "", Config{}, &issues)
	if root == nil {
		root = newDirectory("", Config{})
	}
	return root, issues
}

func load(store storage.Provider, dir string, parent Config, issues *[]issue.Issue) *Directory {
	entries, err := store.ReadDir(dir)
	if err != nil {
		*issues = append(*issues, issue.Issue{
			Kind:     issue.CannotReadDirectory,
			Location: issue.FileLocation(dir),
			Detail:   err.Error(),
		})
		return nil
	}

	cfg := parent
	for _, e := range entries {
		if e.IsDir || e.Name != ConfigFileName {
			continue
		}
		cfgPath := join(dir, e.Name)
		own, err := readConfig(store, cfgPath)
		if err != nil {
			*issues = append(*issues, issue.Issue{
				Kind:     issue.InvalidConfigurationFile,
				Location: issue.FileLocation(cfgPath),
				Detail:   err.Error(),
			})
			return nil
		}
		cfg = Merge(parent, own)
	}

	d := newDirectory(dir, cfg)
	for _, e := range entries {
		rel := join(dir, e.Name)
		if strings.HasPrefix(e.Name, ".") || cfg.Ignores(e.Name, rel) {
			continue
		}
		if e.IsDir {
			if sub := load(store, rel, cfg, issues); sub != nil {
				d.Dirs[e.Name] = sub
			}
			continue
		}
		switch Classify(e.Name) {
		case EntryConfiguration, EntryIgnored:
		case EntryDocument:
			if doc, ok := loadDocument(store, rel, issues); ok {
				d.Docs[e.Name] = doc
			}
		default:
			d.Resources[e.Name] = Resource{Path: rel}
		}
	}
	return d
}

func readConfig(store storage.Provider, rel string) (Config, error) {
	abs, err := store.Abs(rel)
	if err != nil {
		return Config{}, err
	}
	return LoadConfig(abs)
}

func loadDocument(store storage.Provider, rel string, issues *[]issue.Issue) (*document.Document, bool) {
	data, err := store.Read(rel)
	if err != nil {
		*issues = append(*issues, issue.Issue{
			Kind:     issue.CannotReadFile,
			Location: issue.FileLocation(rel),
			Detail:   err.Error(),
		})
		return nil, false
	}
	doc, err := document.Parse(string(data), rel)
	if err != nil {
		kind := issue.NoTitleSection
		if errors.Is(err, document.ErrUnclosedFence) {
			kind = issue.UnclosedFence
		}
		line := 0
		var perr *document.ParseError
		if errors.As(err, &perr) {
			line = perr.Line
		}
		*issues = append(*issues, issue.Issue{
			Kind:     kind,
			Location: issue.Location{File: rel, Line: line},
			Detail:   err.Error(),
		})
		return nil, false
	}
	return doc, true
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Dir returns the directory at the root-relative path p, or nil.
func (d *Directory) Dir(p string) *Directory {
	if p == "" {
		return d
	}
	cur := d
	for _, seg := range strings.Split(p, "/") {
		next, ok := cur.Dirs[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Document returns the document at the root-relative path p, or nil.
func (d *Directory) Document(p string) *document.Document {
	parent := d.Dir(Dir(p))
	if parent == nil {
		return nil
	}
	return parent.Docs[path.Base(p)]
}

// HasResource reports whether a resource exists at the root-relative path p.
func (d *Directory) HasResource(p string) bool {
	parent := d.Dir(Dir(p))
	if parent == nil {
		return false
	}
	_, ok := parent.Resources[path.Base(p)]
	return ok
}

// ConfigFor returns the merged configuration that applies to the file at p.
// Missing directories fall back to their nearest loaded ancestor.
func (d *Directory) ConfigFor(p string) Config {
	cur := d
	dir := Dir(p)
	if dir == "" {
		return cur.Config
	}
	for _, seg := range strings.Split(dir, "/") {
		next, ok := cur.Dirs[seg]
		if !ok {
			break
		}
		cur = next
	}
	return cur.Config
}

// ClassifyLink determines the entry type of a link target, taking the
// ignore patterns of its directory into account.
func (d *Directory) ClassifyLink(p string) EntryType {
	t := Classify(p)
	if t == EntryDirectory && d.HasResource(p) {
		return EntryResource
	}
	if t != EntryIgnored && t != EntryConfiguration && d.ConfigFor(p).Ignores(path.Base(p), p) {
		return EntryIgnored
	}
	return t
}

// Documents returns all documents of the subtree sorted by path.
func (d *Directory) Documents() []*document.Document {
	var out []*document.Document
	d.walk(func(dir *Directory) {
		for _, doc := range dir.Docs {
			out = append(out, doc)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ResourcePaths returns the paths of all resources of the subtree, sorted.
func (d *Directory) ResourcePaths() []string {
	var out []string
	d.walk(func(dir *Directory) {
		for _, r := range dir.Resources {
			out = append(out, r.Path)
		}
	})
	sort.Strings(out)
	return out
}

func (d *Directory) walk(fn func(*Directory)) {
	fn(d)
	for _, sub := range d.Dirs {
		sub.walk(fn)
	}
}
