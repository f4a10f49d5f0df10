package check

import (
	"slices"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// Occurrences compares, for every document with bidirectional links enabled,
// the documents linking to it with the documents it links to. Documents that
// link here without a link back must be listed in the occurrences section,
// and the section must list nothing else.
func Occurrences(root *tree.Directory, outgoing, incoming DocLinks) []issue.Issue {
	var issues []issue.Issue
	for _, doc := range root.Documents() {
		if !root.ConfigFor(doc.Path).Bidi() {
			continue
		}
		var missing []string
		for _, source := range incoming.Targets(doc.Path) {
			if _, ok := outgoing.Get(doc.Path)[source]; !ok {
				missing = append(missing, source)
			}
		}

		occ, hasOcc := doc.OccurrencesSection()
		if len(missing) == 0 {
			if hasOcc {
				issues = append(issues, issue.Issue{
					Kind: issue.ObsoleteOccurrencesSection,
					Location: issue.Location{
						File:  doc.Path,
						Line:  occ.LineNumber(),
						Start: occ.TitleTextStart(),
						End:   len(occ.TitleLine()),
					},
				})
			}
			continue
		}

		listed := make(map[string]struct{})
		if hasOcc {
			for _, e := range occurrenceEntries(doc.Path, occ) {
				if _, dup := listed[e.target]; dup {
					continue
				}
				listed[e.target] = struct{}{}
				if !slices.Contains(missing, e.target) {
					issues = append(issues, issue.Issue{
						Kind:     issue.ObsoleteOccurrence,
						Location: issue.Location{File: doc.Path, Line: e.line, Start: e.start, End: e.end},
						Target:   e.target,
					})
				}
			}
		}

		end := issue.Location{File: doc.Path, Line: doc.LineCount()}
		for _, source := range missing {
			if _, ok := listed[source]; ok {
				continue
			}
			issues = append(issues, issue.Issue{
				Kind:     issue.MissingLink,
				Location: end,
				Target:   source,
				Title:    root.Document(source).HumanTitle(),
			})
		}
	}
	return issues
}

type occurrenceEntry struct {
	target     string
	line       int
	start, end int
}

// occurrenceEntries lists the document links of an occurrences section in order.
func occurrenceEntries(from string, occ document.Section) []occurrenceEntry {
	var out []occurrenceEntry
	for _, line := range occ.Lines() {
		for _, ref := range line.References() {
			if target, ok := ResolveDocumentLink(from, ref); ok {
				out = append(out, occurrenceEntry{target: target, line: line.Number, start: ref.Start, end: ref.End})
			}
		}
	}
	return out
}

// ResolveDocumentLink returns the root-relative path a link of the document
// at from points to. Images, external links, anchors within the same document,
// and paths escaping the root do not resolve.
func ResolveDocumentLink(from string, ref document.Reference) (string, bool) {
	if ref.Kind != document.Link || ref.Destination == "" || isExternal(ref.Destination) {
		return "", false
	}
	file, _, _ := splitDestination(ref.Destination)
	if file == "" {
		return "", false
	}
	target, err := tree.Join(tree.Dir(from), file)
	if err != nil {
		return "", false
	}
	return target, true
}
