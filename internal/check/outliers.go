package check

import (
	"cmp"
	"slices"
	"strings"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/tree"
)

// variantCounter counts how often each variant of a key occurs.
type variantCounter[K comparable, V cmp.Ordered] map[K]map[V]int

func (c variantCounter[K, V]) add(key K, variant V) {
	counts, ok := c[key]
	if !ok {
		counts = make(map[V]int)
		c[key] = counts
	}
	counts[variant]++
}

// verdict describes a key that occurs in more than one variant.
type verdict[V cmp.Ordered] struct {
	variants  []V
	common    V
	hasCommon bool
}

func (v verdict[V]) isOutlier(variant V) bool {
	return !v.hasCommon || variant != v.common
}

// verdicts returns, for every key with several variants, the sorted variants
// and the variant with the strictly highest count. A shared maximum has no common variant.
func (c variantCounter[K, V]) verdicts() map[K]verdict[V] {
	out := make(map[K]verdict[V])
	for key, counts := range c {
		if len(counts) < 2 {
			continue
		}
		var v verdict[V]
		best := 0
		for variant, n := range counts {
			v.variants = append(v.variants, variant)
			switch {
			case n > best:
				best = n
				v.common = variant
				v.hasCommon = true
			case n == best:
				v.hasCommon = false
			}
		}
		slices.Sort(v.variants)
		if !v.hasCommon {
			var zero V
			v.common = zero
		}
		out[key] = v
	}
	return out
}

// Outliers reports section titles whose capitalization or heading level
// differs from how the same title is written elsewhere.
func Outliers(root *tree.Directory) []issue.Issue {
	docs := root.Documents()

	caps := make(variantCounter[string, string])
	levels := make(variantCounter[string, int])
	eachTitledSection(docs, func(_ *document.Document, s document.Section) {
		caps.add(strings.ToLower(s.HumanTitle()), s.HumanTitle())
		levels.add(s.HumanTitle(), s.Level())
	})
	capVerdicts := caps.verdicts()
	levelVerdicts := levels.verdicts()

	var issues []issue.Issue
	eachTitledSection(docs, func(doc *document.Document, s document.Section) {
		title := s.HumanTitle()
		loc := issue.Location{File: doc.Path, Line: s.LineNumber(), Start: s.TitleTextStart(), End: len(s.TitleLine())}
		if v, ok := capVerdicts[strings.ToLower(title)]; ok && v.isOutlier(title) {
			issues = append(issues, issue.Issue{
				Kind:     issue.MixCapSection,
				Location: loc,
				Variants: slices.Clone(v.variants),
				Variant:  title,
				Common:   v.common,
			})
		}
		if v, ok := levelVerdicts[title]; ok && v.isOutlier(s.Level()) {
			loc.Start = 0
			issues = append(issues, issue.Issue{
				Kind:        issue.InconsistentHeadingLevel,
				Location:    loc,
				Target:      title,
				Levels:      slices.Clone(v.variants),
				Level:       s.Level(),
				CommonLevel: v.common,
			})
		}
	})
	return issues
}

func eachTitledSection(docs []*document.Document, fn func(*document.Document, document.Section)) {
	for _, doc := range docs {
		for _, s := range doc.ContentSections() {
			if s.HumanTitle() == "" {
				continue
			}
			fn(doc, s)
		}
	}
}
