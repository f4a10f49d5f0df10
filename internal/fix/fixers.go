package fix

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/starford/tikibase/internal/check"
	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// findSection returns the index of the content section matching pred,
// preferring the one that starts on the issue's line.
func findSection(doc *document.Document, line int, pred func(document.Section) bool) (int, bool) {
	sections := doc.ContentSections()
	found := -1
	for n, s := range sections {
		if !pred(s) {
			continue
		}
		if s.LineNumber() == line {
			return n, true
		}
		if found < 0 {
			found = n
		}
	}
	return found, found >= 0
}

func removeOccurrences(_ *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error) {
	if _, ok := doc.OccurrencesSection(); !ok {
		return issue.Fix{}, ErrNotFixable
	}
	doc.RemoveOccurrencesSection()
	return issue.Fix{Kind: issue.RemovedObsoleteOccurrences, Location: i.Location}, nil
}

func normalizeCapitalization(_ *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error) {
	if !i.HasCommon() {
		return issue.Fix{}, ErrNotFixable
	}
	n, ok := findSection(doc, i.Location.Line, func(s document.Section) bool {
		return s.HumanTitle() == i.Variant
	})
	if !ok {
		return issue.Fix{}, ErrNotFixable
	}
	sections := doc.ContentSections()
	sections[n] = sections[n].WithTitle(i.Common)
	doc.SetContentSections(sections)
	return issue.Fix{
		Kind:     issue.NormalizedSectionCapitalization,
		Location: i.Location,
		From:     i.Variant,
		To:       i.Common,
	}, nil
}

func normalizeLevel(_ *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error) {
	if !i.HasCommon() {
		return issue.Fix{}, ErrNotFixable
	}
	n, ok := findSection(doc, i.Location.Line, func(s document.Section) bool {
		return s.HumanTitle() == i.Target && s.Level() == i.Level
	})
	if !ok {
		return issue.Fix{}, ErrNotFixable
	}
	sections := doc.ContentSections()
	sections[n] = sections[n].WithLevel(i.CommonLevel)
	doc.SetContentSections(sections)
	return issue.Fix{
		Kind:     issue.NormalizedSectionLevel,
		Location: i.Location,
		Target:   i.Target,
		From:     strconv.Itoa(i.Level),
		To:       strconv.Itoa(i.CommonLevel),
	}, nil
}

func removeEmptySection(_ *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error) {
	n, ok := findSection(doc, i.Location.Line, func(s document.Section) bool {
		return s.HumanTitle() == i.Target && s.IsEmpty()
	})
	if !ok {
		return issue.Fix{}, ErrNotFixable
	}
	doc.SetContentSections(slices.Delete(doc.ContentSections(), n, n+1))
	return issue.Fix{Kind: issue.RemovedEmptySection, Location: i.Location, Target: i.Target}, nil
}

func sortSections(f *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error) {
	schema := f.root.ConfigFor(doc.Path).Sections
	if len(schema) == 0 {
		return issue.Fix{}, ErrNotFixable
	}
	fixed := issue.Fix{Kind: issue.SortedSections, Location: i.Location, Target: i.Target}
	if f.sorted[doc.Path] {
		return fixed, nil
	}
	sections := doc.ContentSections()
	ordered := orderSections(slices.Clone(sections), schema)
	if slices.EqualFunc(sections, ordered, func(a, b document.Section) bool {
		return a.LineNumber() == b.LineNumber()
	}) {
		// repeated titles stay out of order however they are sorted
		return issue.Fix{}, ErrNotFixable
	}
	doc.SetContentSections(ordered)
	f.sorted[doc.Path] = true
	return fixed, nil
}

// orderSections sorts sections stably by their position in schema. Sections
// whose title is not in schema follow in their original relative order.
func orderSections(sections []document.Section, schema []string) []document.Section {
	rank := make(map[string]int, len(schema))
	for n, title := range schema {
		rank[title] = n
	}
	var known, unknown []document.Section
	for _, s := range sections {
		if _, ok := rank[s.HumanTitle()]; ok {
			known = append(known, s)
		} else {
			unknown = append(unknown, s)
		}
	}
	slices.SortStableFunc(known, func(a, b document.Section) int {
		return rank[a.HumanTitle()] - rank[b.HumanTitle()]
	})
	return append(known, unknown...)
}

// updateOccurrences rebuilds the occurrences section of one document: entries
// of documents that no longer need one are dropped, missing back-links are
// appended. The section is created if needed.
func (f *fixer) updateOccurrences(file string, group []issue.Issue) ([]issue.Fix, error) {
	doc := f.root.Document(file)
	if doc == nil {
		return nil, ErrNotFixable
	}
	titleRe, err := compileTitleRegex(f.root.ConfigFor(file).TitlePattern())
	if err != nil {
		return nil, err
	}
	before := doc.Text()

	obsolete := make(map[string]issue.Issue)
	var added []document.Line
	var fixes []issue.Fix
	for _, i := range group {
		if i.Kind == issue.ObsoleteOccurrence {
			obsolete[i.Target] = i
			continue
		}
		title := linkTitle(i.Title, titleRe)
		target := strings.ReplaceAll(tree.RelativePath(doc.Path, i.Target), " ", "%20")
		added = append(added, document.NewLine(0, fmt.Sprintf("- [%s](%s)", escapeLinkText(title), target)))
		fixes = append(fixes, issue.Fix{
			Kind:     issue.AddedOccurrence,
			Location: i.Location,
			Target:   i.Target,
			Title:    title,
		})
	}

	occ, ok := doc.OccurrencesSection()
	switch {
	case ok:
		var body []document.Line
		for _, line := range occ.Body() {
			if stale, found := obsoleteEntry(doc.Path, line, obsolete); found {
				fixes = append(fixes, issue.Fix{
					Kind:     issue.RemovedObsoleteOccurrence,
					Location: stale.Location,
					Target:   stale.Target,
				})
				delete(obsolete, stale.Target)
				continue
			}
			body = append(body, line)
		}
		end := len(body)
		for end > 0 && body[end-1].IsBlank() {
			end--
		}
		if end == 0 {
			end = len(body)
		}
		body = slices.Insert(body, end, added...)
		doc.SetOccurrencesSection(occ.WithBody(body))
	case len(added) > 0:
		if !doc.EndsWithBlankLine() {
			doc.AppendBlankLine()
		}
		body := append([]document.Line{document.NewLine(0, "")}, added...)
		doc.SetOccurrencesSection(document.NewSection(0, "### "+document.OccurrencesTitle, body))
	}
	if len(fixes) == 0 {
		return nil, ErrNotFixable
	}

	if err := f.save(doc, before); err != nil {
		return nil, err
	}
	f.log.Debug("fix: occurrences updated",
		slog.String("path", file),
		slog.Int("added", len(added)),
		slog.Int("removed", len(fixes)-len(added)),
	)
	return fixes, nil
}

// obsoleteEntry returns the obsolete issue naming a document that line links to.
func obsoleteEntry(from string, line document.Line, obsolete map[string]issue.Issue) (issue.Issue, bool) {
	for _, ref := range line.References() {
		target, ok := check.ResolveDocumentLink(from, ref)
		if !ok {
			continue
		}
		if i, found := obsolete[target]; found {
			return i, true
		}
	}
	return issue.Issue{}, false
}

func compileTitleRegex(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("fix: compile titleRegEx: %w", err)
	}
	if re.NumSubexp() != 1 {
		return nil, ErrTitleRegex
	}
	return re, nil
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// escapeLinkText escapes brackets so that any title fits between [ and ].
func escapeLinkText(s string) string {
	return linkTextEscaper.Replace(s)
}

// linkTitle turns a document title into the text of an occurrences entry.
func linkTitle(title string, re *regexp.Regexp) string {
	title = document.StripLinks(title)
	if re != nil {
		if m := re.FindStringSubmatch(title); m != nil {
			title = m[1]
		}
	}
	return strings.TrimSpace(title)
}
