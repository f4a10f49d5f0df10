package check

import (
	"slices"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// Order reports content sections that appear out of the configured order.
// Titles missing from the configuration are left to UnknownSection.
func Order(root *tree.Directory) []issue.Issue {
	var issues []issue.Issue
	for _, doc := range root.Documents() {
		schema := root.ConfigFor(doc.Path).Sections
		if len(schema) == 0 {
			continue
		}
		for _, s := range unorderedSections(doc.ContentSections(), schema) {
			issues = append(issues, issue.Issue{
				Kind:     issue.UnorderedSections,
				Location: titleLocation(doc, s),
				Target:   s.HumanTitle(),
			})
		}
	}
	return issues
}

// unorderedSections walks the sections and the schema with two pointers.
// A match advances both, a known title further down the schema advances only
// the schema. Once the schema is exhausted every further known section is
// out of order, so a repeated title is reported as well.
func unorderedSections(sections []document.Section, schema []string) []document.Section {
	var out []document.Section
	pos := 0
	for n := 0; n < len(sections); {
		title := sections[n].HumanTitle()
		switch {
		case !slices.Contains(schema, title):
			n++
		case pos == len(schema):
			out = append(out, sections[n])
			n++
		case schema[pos] == title:
			pos++
			n++
		default:
			pos++
		}
	}
	return out
}

func titleLocation(doc *document.Document, s document.Section) issue.Location {
	return issue.Location{
		File:  doc.Path,
		Line:  s.LineNumber(),
		Start: s.TitleTextStart(),
		End:   len(s.TitleLine()),
	}
}
