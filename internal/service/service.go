// Package service keeps the latest scan of a tikibase and serves it to the
// HTTP and MCP surfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/checksum"
	"github.com/starford/tikibase/internal/engine"
	"github.com/starford/tikibase/internal/fix"
	"github.com/starford/tikibase/internal/index"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/output"
	"github.com/starford/tikibase/internal/stats"
	"github.com/starford/tikibase/internal/storage"
)

// Summary is a compact description of the latest scan.
type Summary struct {
	Documents int       `json:"documents"`
	Resources int       `json:"resources"`
	Issues    int       `json:"issues"`
	Fixable   int       `json:"fixable"`
	ScannedAt time.Time `json:"scanned_at"`
}

// DocumentDetail is the full representation of one document.
type DocumentDetail struct {
	Path      string          `json:"path"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Checksum  string          `json:"checksum"`
	Sections  []string        `json:"sections"`
	Links     []string        `json:"links"`
	Backlinks []string        `json:"backlinks"`
	Issues    []issue.Message `json:"issues"`
	// IndexedAt is when the search index last stored this document; nil if never.
	IndexedAt *time.Time `json:"indexed_at,omitempty"`
}

// FixOutcome reports one fix run.
type FixOutcome struct {
	Fixes   []issue.Message `json:"fixes"`
	Unfixed []issue.Message `json:"unfixed"`
	Summary Summary         `json:"summary"`
}

// Service coordinates the engine, storage, and index.
// All methods are safe for concurrent use.
type Service struct {
	engine *engine.Engine
	store  storage.Provider
	db     *index.DB
	log    *slog.Logger

	// scanMu serializes scans and fixes so reports are stored in scan order;
	// mu guards the cached report.
	scanMu  sync.Mutex
	mu      sync.RWMutex
	report  engine.Report
	summary Summary
	scanned bool
}

// New creates a service. Nothing is scanned until the first call that needs a report.
func New(store storage.Provider, db *index.DB, logger *slog.Logger) *Service {
	return &Service{
		engine: engine.New(store, logger),
		store:  store,
		db:     db,
		log:    logger,
	}
}

// Refresh rescans the tikibase, updates the search index, and returns the new summary.
func (s *Service) Refresh(_ context.Context) (Summary, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.refreshLocked()
}

// refreshLocked is Refresh for callers holding scanMu.
func (s *Service) refreshLocked() (Summary, error) {
	report := s.engine.Scan()
	summary := summarize(report)

	s.mu.Lock()
	s.report = report
	s.summary = summary
	s.scanned = true
	s.mu.Unlock()

	if err := index.Sync(s.db, Sources(report), s.log); err != nil {
		return summary, fmt.Errorf("service: sync index: %w", err)
	}
	return summary, nil
}

// latest returns the cached report, scanning once if needed.
func (s *Service) latest(ctx context.Context) (engine.Report, Summary, error) {
	s.mu.RLock()
	report, summary, ok := s.report, s.summary, s.scanned
	s.mu.RUnlock()
	if ok {
		return report, summary, nil
	}

	s.scanMu.Lock()
	s.mu.RLock()
	ok = s.scanned
	s.mu.RUnlock()
	if !ok {
		if _, err := s.refreshLocked(); err != nil {
			s.scanMu.Unlock()
			return engine.Report{}, Summary{}, err
		}
	}
	s.scanMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.summary, nil
}

// Summary returns the summary of the latest scan.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	_, summary, err := s.latest(ctx)
	return summary, err
}

// Issues returns the issues of the latest scan, optionally limited to one file.
func (s *Service) Issues(ctx context.Context, file string) ([]issue.Message, error) {
	report, _, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	return output.Issues(issuesOf(report.Issues, file)), nil
}

// Stats computes statistics from the latest scan.
func (s *Service) Stats(ctx context.Context) (stats.Stats, error) {
	report, _, err := s.latest(ctx)
	if err != nil {
		return stats.Stats{}, err
	}
	return stats.Compute(report.Root, report.Outgoing), nil
}

// Fix applies every available fix, then rescans.
func (s *Service) Fix(ctx context.Context) (FixOutcome, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	_, res := s.engine.Fix()
	summary, err := s.refreshLocked()
	if err != nil {
		return FixOutcome{}, err
	}
	return FixOutcome{
		Fixes:   output.Fixes(res.Fixes),
		Unfixed: output.Issues(res.Unfixed),
		Summary: summary,
	}, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if _, _, err := s.latest(ctx); err != nil {
		return nil, err
	}
	results, err := s.db.Search(query, limit)
	return nonNilSlice(results), err
}

// Backlinks returns the documents that link to target.
func (s *Service) Backlinks(ctx context.Context, target string) ([]string, error) {
	if _, _, err := s.latest(ctx); err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// Document reads one document and enriches it with links and issues from the latest scan.
func (s *Service) Document(ctx context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	report, _, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	doc := report.Root.Document(path)
	if doc == nil {
		return nil, apperr.ErrNotFound
	}
	var sections []string
	for _, sec := range doc.ContentSections() {
		sections = append(sections, sec.HumanTitle())
	}
	detail := &DocumentDetail{
		Path:      path,
		Title:     doc.HumanTitle(),
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Sections:  nonNilSlice(sections),
		Links:     report.Outgoing.Targets(path),
		Backlinks: report.Incoming.Targets(path),
		Issues:    output.Issues(issuesOf(report.Issues, path)),
	}
	row, err := s.db.GetDocument(path)
	switch {
	case err == nil:
		detail.IndexedAt = &row.UpdatedAt
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("service: index lookup: %w", err)
	}
	return detail, nil
}

// Sources converts the documents of a report into index sources.
func Sources(report engine.Report) []index.Source {
	docs := report.Root.Documents()
	out := make([]index.Source, 0, len(docs))
	for _, doc := range docs {
		var sections []string
		for _, sec := range doc.ContentSections() {
			sections = append(sections, sec.HumanTitle())
		}
		out = append(out, index.Source{
			Path:     doc.Path,
			Title:    doc.HumanTitle(),
			Sections: sections,
			Text:     doc.Text(),
			Links:    report.Outgoing.Targets(doc.Path),
		})
	}
	return out
}

func summarize(report engine.Report) Summary {
	sum := Summary{
		Documents: len(report.Root.Documents()),
		Resources: len(report.Root.ResourcePaths()),
		Issues:    len(report.Issues),
		ScannedAt: time.Now(),
	}
	for _, i := range report.Issues {
		if fix.Fixable(i) {
			sum.Fixable++
		}
	}
	return sum
}

func issuesOf(issues []issue.Issue, file string) []issue.Issue {
	if file == "" {
		return issues
	}
	var out []issue.Issue
	for _, i := range issues {
		if i.Location.File == file {
			out = append(out, i)
		}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
