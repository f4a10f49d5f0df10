package check

import (
	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// Sources reports numeric citations without a matching source definition
// and unbalanced footnote references and definitions.
func Sources(root *tree.Directory) []issue.Issue {
	var issues []issue.Issue
	for _, doc := range root.Documents() {
		issues = append(issues, documentSources(doc)...)
	}
	return issues
}

func documentSources(doc *document.Document) []issue.Issue {
	type marker struct {
		id  string
		loc issue.Location
	}
	var (
		citations []marker
		footRefs  []marker
		footDefs  []marker
		sources   = make(map[string]struct{})
		defined   = make(map[string]struct{})
		used      = make(map[string]struct{})
	)
	for _, s := range doc.Sections() {
		for _, line := range s.Lines() {
			at := func(m document.Marker) issue.Location {
				return issue.Location{File: doc.Path, Line: line.Number, Start: m.Start, End: m.End}
			}
			if n, ok := line.SourceDefinition(); ok {
				sources[n] = struct{}{}
			}
			if def, ok := line.FootnoteDefinition(); ok {
				footDefs = append(footDefs, marker{def.Identifier, at(def)})
				defined[def.Identifier] = struct{}{}
			}
			for _, c := range line.Citations() {
				citations = append(citations, marker{c.Identifier, at(c)})
			}
			for _, f := range line.Footnotes() {
				footRefs = append(footRefs, marker{f.Identifier, at(f)})
				used[f.Identifier] = struct{}{}
			}
		}
	}

	var issues []issue.Issue
	for _, c := range citations {
		if _, ok := sources[c.id]; !ok {
			issues = append(issues, issue.Issue{Kind: issue.MissingSource, Location: c.loc, Target: c.id})
		}
	}
	for _, f := range footRefs {
		if _, ok := defined[f.id]; !ok {
			issues = append(issues, issue.Issue{Kind: issue.MissingFootnote, Location: f.loc, Target: f.id})
		}
	}
	for _, f := range footDefs {
		if _, ok := used[f.id]; !ok {
			issues = append(issues, issue.Issue{Kind: issue.UnusedFootnote, Location: f.loc, Target: f.id})
		}
	}
	return issues
}
