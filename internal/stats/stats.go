// Package stats summarizes a tikibase.
package stats

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/starford/tikibase/internal/check"
	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/tree"
)

// TitleCount is how often a section title occurs.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// Stats describes the size and shape of a tikibase.
type Stats struct {
	Documents     int          `json:"documents"`
	Resources     int          `json:"resources"`
	Sections      int          `json:"sections"`
	Links         int          `json:"links"`
	ExternalLinks int          `json:"externalLinks"`
	Images        int          `json:"images"`
	DocumentEdges int          `json:"documentEdges"`
	Unlinked      []string     `json:"unlinked"`
	SectionTitles []TitleCount `json:"sectionTitles"`
}

// Compute gathers statistics for root. outgoing is the link graph of the same scan.
func Compute(root *tree.Directory, outgoing check.DocLinks) Stats {
	docs := root.Documents()
	s := Stats{
		Documents: len(docs),
		Resources: len(root.ResourcePaths()),
		Unlinked:  []string{},
	}

	incoming := make(map[string]bool)
	for _, targets := range outgoing {
		s.DocumentEdges += len(targets)
		for t := range targets {
			incoming[t] = true
		}
	}

	titles := make(map[string]int)
	for _, doc := range docs {
		for _, sec := range doc.ContentSections() {
			s.Sections++
			if t := sec.HumanTitle(); t != "" {
				titles[t]++
			}
		}
		for _, sec := range doc.Sections() {
			for _, line := range sec.Lines() {
				for _, ref := range line.References() {
					switch {
					case ref.Kind == document.Image:
						s.Images++
					case strings.HasPrefix(ref.Destination, "http"), strings.HasPrefix(ref.Destination, "mailto:"):
						s.ExternalLinks++
					default:
						s.Links++
					}
				}
			}
		}
		if len(outgoing.Get(doc.Path)) == 0 && !incoming[doc.Path] {
			s.Unlinked = append(s.Unlinked, doc.Path)
		}
	}

	s.SectionTitles = make([]TitleCount, 0, len(titles))
	for t, n := range titles {
		s.SectionTitles = append(s.SectionTitles, TitleCount{Title: t, Count: n})
	}
	slices.SortFunc(s.SectionTitles, func(a, b TitleCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.Title, b.Title))
	})
	return s
}

// WriteText prints s for humans.
func (s Stats) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "documents: %d\n", s.Documents)
	fmt.Fprintf(&b, "resources: %d\n", s.Resources)
	fmt.Fprintf(&b, "sections: %d\n", s.Sections)
	fmt.Fprintf(&b, "links: %d (%d external, %d images)\n", s.Links, s.ExternalLinks, s.Images)
	fmt.Fprintf(&b, "document links: %d\n", s.DocumentEdges)
	if len(s.Unlinked) > 0 {
		b.WriteString("\nunlinked documents:\n")
		for _, p := range s.Unlinked {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	if len(s.SectionTitles) > 0 {
		b.WriteString("\nsection titles:\n")
		for _, t := range s.SectionTitles {
			fmt.Fprintf(&b, "%5d  %s\n", t.Count, t.Title)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
