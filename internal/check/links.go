// Package check finds issues in a loaded tikibase.
package check

import (
	"net/url"
	"sort"
	"strings"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// DocLinks maps a document path to the set of document paths it is linked with.
type DocLinks map[string]map[string]struct{}

// Add records a link from one document to another.
func (l DocLinks) Add(from, to string) {
	set, ok := l[from]
	if !ok {
		set = make(map[string]struct{})
		l[from] = set
	}
	set[to] = struct{}{}
}

// Get returns the linked paths of p; the result must not be modified.
func (l DocLinks) Get(p string) map[string]struct{} {
	return l[p]
}

// Targets returns the linked paths of p in sorted order.
func (l DocLinks) Targets(p string) []string {
	out := make([]string, 0, len(l[p]))
	for t := range l[p] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// LinkResult is the outcome of link resolution.
type LinkResult struct {
	Issues []issue.Issue
	// Outgoing maps each document to the documents it links to.
	Outgoing DocLinks
	// Incoming is Outgoing transposed.
	Incoming DocLinks
	// Referenced holds every file path targeted by a link or image.
	Referenced map[string]struct{}
}

// Links resolves every link and image of every document.
func Links(root *tree.Directory) LinkResult {
	r := &linkResolver{
		root:    root,
		anchors: make(map[string]map[string]struct{}),
		result: LinkResult{
			Outgoing:   make(DocLinks),
			Incoming:   make(DocLinks),
			Referenced: make(map[string]struct{}),
		},
	}
	for _, doc := range root.Documents() {
		r.document(doc)
	}
	for _, p := range root.ResourcePaths() {
		if _, ok := r.result.Referenced[p]; !ok {
			r.report(issue.Issue{Kind: issue.OrphanedResource, Location: issue.FileLocation(p)})
		}
	}
	return r.result
}

type linkResolver struct {
	root    *tree.Directory
	anchors map[string]map[string]struct{}
	result  LinkResult
}

func (r *linkResolver) report(i issue.Issue) {
	r.result.Issues = append(r.result.Issues, i)
}

func (r *linkResolver) anchorsOf(doc *document.Document) map[string]struct{} {
	if a, ok := r.anchors[doc.Path]; ok {
		return a
	}
	a := doc.Anchors()
	r.anchors[doc.Path] = a
	return a
}

func (r *linkResolver) document(doc *document.Document) {
	links := 0
	for _, s := range doc.Sections() {
		links += r.section(doc, s, true)
	}
	if occ, ok := doc.OccurrencesSection(); ok {
		links += r.section(doc, occ, false)
	}
	if links == 0 && r.root.ConfigFor(doc.Path).Bidi() {
		title := doc.TitleSection()
		r.report(issue.Issue{
			Kind:     issue.DocumentWithoutLinks,
			Location: issue.Location{File: doc.Path, Line: title.LineNumber(), End: len(title.TitleLine())},
		})
	}
}

// section checks the references of one section and returns how many links it has.
// Only sections with edges contribute to the document graph.
func (r *linkResolver) section(doc *document.Document, s document.Section, edges bool) int {
	links := 0
	for _, line := range s.Lines() {
		for _, ref := range line.References() {
			loc := issue.Location{File: doc.Path, Line: line.Number, Start: ref.Start, End: ref.End}
			if ref.Kind == document.Link {
				links++
				r.link(doc, ref.Destination, loc, edges)
			} else {
				r.image(doc, ref.Destination, loc)
			}
		}
	}
	return links
}

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "http") || strings.HasPrefix(dest, "mailto:")
}

// splitDestination separates the file part, percent-decoded, from the anchor.
func splitDestination(dest string) (file, anchor string, hasAnchor bool) {
	file, anchor, hasAnchor = strings.Cut(dest, "#")
	if decoded, err := url.PathUnescape(file); err == nil {
		file = decoded
	}
	return file, anchor, hasAnchor
}

func (r *linkResolver) link(doc *document.Document, dest string, loc issue.Location, edges bool) {
	if dest == "" {
		r.report(issue.Issue{Kind: issue.LinkWithoutTarget, Location: loc})
		return
	}
	if isExternal(dest) {
		return
	}
	file, anchor, hasAnchor := splitDestination(dest)
	if file == "" {
		if _, ok := r.anchorsOf(doc)["#"+anchor]; !ok {
			r.report(issue.Issue{Kind: issue.LinkToNonExistingAnchorInCurrentDocument, Location: loc, Target: "#" + anchor})
		}
		return
	}
	target, err := tree.Join(tree.Dir(doc.Path), file)
	if err != nil {
		r.report(issue.Issue{Kind: issue.PathEscapesRoot, Location: loc, Target: dest})
		return
	}
	if target == doc.Path {
		r.report(issue.Issue{Kind: issue.LinkToSameDocument, Location: loc, Target: dest})
		return
	}

	switch r.root.ClassifyLink(target) {
	case tree.EntryDocument:
		other := r.root.Document(target)
		if other == nil {
			r.report(issue.Issue{Kind: issue.LinkToNonExistingFile, Location: loc, Target: target})
			return
		}
		r.result.Referenced[target] = struct{}{}
		if hasAnchor {
			if _, ok := r.anchorsOf(other)["#"+anchor]; !ok {
				r.report(issue.Issue{Kind: issue.LinkToNonExistingAnchorInExistingDocument, Location: loc, Target: dest})
				return
			}
		}
		if edges {
			r.result.Outgoing.Add(doc.Path, target)
			r.result.Incoming.Add(target, doc.Path)
		}
	case tree.EntryResource:
		if !r.root.HasResource(target) {
			r.report(issue.Issue{Kind: issue.LinkToNonExistingFile, Location: loc, Target: target})
			return
		}
		r.result.Referenced[target] = struct{}{}
	case tree.EntryDirectory:
		if r.root.Dir(target) == nil {
			r.report(issue.Issue{Kind: issue.LinkToNonExistingDir, Location: loc, Target: target})
		}
	case tree.EntryConfiguration, tree.EntryIgnored:
	}
}

func (r *linkResolver) image(doc *document.Document, dest string, loc issue.Location) {
	if dest == "" {
		r.report(issue.Issue{Kind: issue.LinkWithoutTarget, Location: loc})
		return
	}
	if isExternal(dest) {
		return
	}
	file, _, _ := splitDestination(dest)
	target, err := tree.Join(tree.Dir(doc.Path), file)
	if err != nil {
		r.report(issue.Issue{Kind: issue.PathEscapesRoot, Location: loc, Target: dest})
		return
	}
	r.result.Referenced[target] = struct{}{}
	if !r.root.HasResource(target) && r.root.Document(target) == nil {
		r.report(issue.Issue{Kind: issue.BrokenImage, Location: loc, Target: target})
	}
}
