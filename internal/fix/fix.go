// Package fix repairs issues in place.
package fix

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/tikibase/internal/document"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/storage"
	"github.com/starford/tikibase/internal/tree"
)

var (
	// ErrNotFixable is returned for issues without an automatic fix, or whose target is gone.
	ErrNotFixable = errors.New("issue cannot be fixed automatically")
	// ErrTitleRegex is returned when titleRegEx does not have exactly one capture group.
	ErrTitleRegex = errors.New("titleRegEx must have exactly one capture group")
)

// Result lists the applied fixes and the issues left untouched.
type Result struct {
	Fixes   []issue.Fix
	Unfixed []issue.Issue
}

// fixFunc mutates doc to resolve i.
type fixFunc func(f *fixer, doc *document.Document, i issue.Issue) (issue.Fix, error)

// fixerFor returns the fix for kind, or nil if there is none.
func fixerFor(kind issue.Kind) fixFunc {
	switch kind {
	case issue.ObsoleteOccurrencesSection:
		return removeOccurrences
	case issue.MixCapSection:
		return normalizeCapitalization
	case issue.InconsistentHeadingLevel:
		return normalizeLevel
	case issue.EmptySection:
		return removeEmptySection
	case issue.UnorderedSections:
		return sortSections
	case issue.CannotReadDirectory, issue.CannotReadFile, issue.InvalidConfigurationFile,
		issue.NoTitleSection, issue.UnclosedFence,
		issue.LinkWithoutTarget, issue.PathEscapesRoot, issue.LinkToSameDocument,
		issue.LinkToNonExistingAnchorInCurrentDocument, issue.LinkToNonExistingAnchorInExistingDocument,
		issue.LinkToNonExistingFile, issue.LinkToNonExistingDir, issue.BrokenImage,
		issue.DocumentWithoutLinks, issue.OrphanedResource,
		issue.UnknownSection, issue.DuplicateSection, issue.EmptySectionTitle,
		issue.MissingSource, issue.MissingFootnote, issue.UnusedFootnote:
		return nil
	case issue.MissingLink, issue.ObsoleteOccurrence:
		// handled per document by updateOccurrences
		return nil
	default:
		return nil
	}
}

// Fixable reports whether Apply can attempt to fix i.
func Fixable(i issue.Issue) bool {
	switch i.Kind {
	case issue.MissingLink, issue.ObsoleteOccurrence:
		return true
	case issue.MixCapSection, issue.InconsistentHeadingLevel:
		return i.HasCommon()
	default:
		return fixerFor(i.Kind) != nil
	}
}

type fixer struct {
	root   *tree.Directory
	store  storage.Provider
	log    *slog.Logger
	// sorted holds the documents whose sections were reordered in this run.
	sorted map[string]bool
}

// Apply fixes every fixable issue of one scan. Each changed document is
// rendered in full and written back right away; issues are not rescanned.
func Apply(root *tree.Directory, store storage.Provider, issues []issue.Issue, logger *slog.Logger) Result {
	f := &fixer{root: root, store: store, log: logger, sorted: make(map[string]bool)}
	var res Result

	entries := make(map[string][]issue.Issue)
	var entriesOrder []string
	for _, i := range issues {
		if !isOccurrenceEntry(i) {
			continue
		}
		if _, ok := entries[i.Location.File]; !ok {
			entriesOrder = append(entriesOrder, i.Location.File)
		}
		entries[i.Location.File] = append(entries[i.Location.File], i)
	}

	for _, i := range issues {
		if isOccurrenceEntry(i) {
			continue
		}
		fix, err := f.one(i)
		if err != nil {
			f.logFailure(i, err)
			res.Unfixed = append(res.Unfixed, i)
			continue
		}
		res.Fixes = append(res.Fixes, fix)
	}

	for _, file := range entriesOrder {
		group := entries[file]
		fixes, err := f.updateOccurrences(file, group)
		if err != nil {
			for _, i := range group {
				f.logFailure(i, err)
			}
			res.Unfixed = append(res.Unfixed, group...)
			continue
		}
		res.Fixes = append(res.Fixes, fixes...)
	}

	issue.Sort(res.Unfixed)
	return res
}

func isOccurrenceEntry(i issue.Issue) bool {
	return i.Kind == issue.MissingLink || i.Kind == issue.ObsoleteOccurrence
}

func (f *fixer) one(i issue.Issue) (issue.Fix, error) {
	fn := fixerFor(i.Kind)
	if fn == nil {
		return issue.Fix{}, ErrNotFixable
	}
	doc := f.root.Document(i.Location.File)
	if doc == nil {
		return issue.Fix{}, ErrNotFixable
	}
	before := doc.Text()
	fix, err := fn(f, doc, i)
	if err != nil {
		return issue.Fix{}, err
	}
	if err := f.save(doc, before); err != nil {
		return issue.Fix{}, err
	}
	return fix, nil
}

// save writes doc if its text differs from before.
func (f *fixer) save(doc *document.Document, before string) error {
	text := doc.Text()
	if text == before {
		return nil
	}
	if err := f.store.Write(doc.Path, []byte(text)); err != nil {
		return fmt.Errorf("fix: save %s: %w", doc.Path, err)
	}
	return nil
}

func (f *fixer) logFailure(i issue.Issue, err error) {
	if errors.Is(err, ErrNotFixable) {
		return
	}
	f.log.Warn("fix: failed",
		slog.String("path", i.Location.File),
		slog.String("kind", i.Kind.String()),
		slog.String("error", err.Error()),
	)
}
