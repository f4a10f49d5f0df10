package check

import (
	"slices"

	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// Structure reports duplicate, empty, untitled, and unknown content sections.
func Structure(root *tree.Directory) []issue.Issue {
	var issues []issue.Issue
	for _, doc := range root.Documents() {
		cfg := root.ConfigFor(doc.Path)
		seen := make(map[string]struct{})
		for _, s := range doc.ContentSections() {
			title := s.HumanTitle()
			loc := titleLocation(doc, s)
			if title == "" {
				loc.Start = 0
				issues = append(issues, issue.Issue{Kind: issue.EmptySectionTitle, Location: loc})
				continue
			}
			if _, dup := seen[title]; dup {
				issues = append(issues, issue.Issue{Kind: issue.DuplicateSection, Location: loc, Target: title})
			}
			seen[title] = struct{}{}
			if s.IsEmpty() {
				issues = append(issues, issue.Issue{Kind: issue.EmptySection, Location: loc, Target: title})
			}
			if cfg.HasSections() && !slices.Contains(cfg.Sections, title) {
				issues = append(issues, issue.Issue{
					Kind:     issue.UnknownSection,
					Location: loc,
					Target:   title,
					Allowed:  slices.Clone(cfg.Sections),
				})
			}
		}
	}
	return issues
}
