// Package engine runs one complete scan of a tikibase and optionally fixes it.
package engine

import (
	"log/slog"
	"time"

	"github.com/starford/tikibase/internal/check"
	"github.com/starford/tikibase/internal/fix"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/storage"
	"github.com/starford/tikibase/internal/tree"
)

// Report is the outcome of one scan.
type Report struct {
	Root     *tree.Directory
	Issues   []issue.Issue
	Outgoing check.DocLinks
	Incoming check.DocLinks
}

// Engine scans the tikibase behind a storage provider.
type Engine struct {
	store storage.Provider
	log   *slog.Logger
}

// New creates an engine for store.
func New(store storage.Provider, logger *slog.Logger) *Engine {
	return &Engine{store: store, log: logger}
}

// Scan loads the tikibase and runs every check. Load problems are part of the report.
func (e *Engine) Scan() Report {
	start := time.Now()
	root, issues := tree.Load(e.store)
	res := check.Run(root)
	issues = append(issues, res.Issues...)
	issue.Sort(issues)

	e.log.Debug("engine: scan complete",
		slog.Int("documents", len(root.Documents())),
		slog.Int("issues", len(issues)),
		slog.Duration("took", time.Since(start)),
	)
	return Report{
		Root:     root,
		Issues:   issues,
		Outgoing: res.Outgoing,
		Incoming: res.Incoming,
	}
}

// Fix scans once and applies every available fix to the result.
// The returned report describes the tikibase before fixing.
func (e *Engine) Fix() (Report, fix.Result) {
	report := e.Scan()
	res := fix.Apply(report.Root, e.store, report.Issues, e.log)
	e.log.Info("engine: fixes applied",
		slog.Int("fixed", len(res.Fixes)),
		slog.Int("unfixed", len(res.Unfixed)),
	)
	return report, res
}
