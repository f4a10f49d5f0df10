// Package internal provides application initialization and the commands of the tikibase CLI.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/engine"
	"github.com/starford/tikibase/internal/index"
	"github.com/starford/tikibase/internal/output"
	"github.com/starford/tikibase/internal/service"
	"github.com/starford/tikibase/internal/stats"
	"github.com/starford/tikibase/internal/storage"
	"github.com/starford/tikibase/internal/tree"
)

// newApp applies opts and fills in defaults.
func newApp(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.dir == "" {
		app.dir = "."
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.version == "" {
		app.version = "dev"
	}
	if app.format == "" {
		app.format = app.config.Output.Format
	}
	if _, err := output.ParseFormat(app.format); err != nil {
		return nil, err
	}

	if app.logger == nil {
		// stdout carries the report, so logs go to stderr.
		app.logger = slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

func (a *application) outputFormat() output.Format {
	f, _ := output.ParseFormat(a.format)
	return f
}

func (a *application) store() (*storage.FS, error) {
	store, err := storage.NewFS(a.dir)
	if err != nil {
		return nil, fmt.Errorf("open tikibase: %w", err)
	}
	return store, nil
}

func (a *application) engine() (*engine.Engine, error) {
	store, err := a.store()
	if err != nil {
		return nil, err
	}
	return engine.New(store, a.logger), nil
}

// openService opens the search index and returns a service with a fresh scan.
func (a *application) openService(ctx context.Context) (*service.Service, func(), error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	dbPath := a.config.Index.Resolve(store.Root())
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("index: close failed", slog.String("error", err.Error()))
		}
	}

	svc := service.New(store, db, a.logger)
	if _, err := svc.Refresh(ctx); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return svc, closeDB, nil
}

// Check prints every issue and returns how many there are.
func Check(_ context.Context, opts ...Option) (int, error) {
	app, err := newApp(opts)
	if err != nil {
		return 0, err
	}
	eng, err := app.engine()
	if err != nil {
		return 0, err
	}
	report := eng.Scan()
	if err := printIssues(app.stdout, app.outputFormat(), report); err != nil {
		return 0, err
	}
	return len(report.Issues), nil
}

// Fix applies all available fixes without printing anything.
func Fix(_ context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	eng, err := app.engine()
	if err != nil {
		return err
	}
	eng.Fix()
	return nil
}

// Pitstop applies all available fixes, prints the issues that remain,
// and returns how many there are.
func Pitstop(_ context.Context, opts ...Option) (int, error) {
	app, err := newApp(opts)
	if err != nil {
		return 0, err
	}
	eng, err := app.engine()
	if err != nil {
		return 0, err
	}
	_, res := eng.Fix()
	if err := output.Messages(app.stdout, app.outputFormat(), output.Issues(res.Unfixed)); err != nil {
		return 0, err
	}
	return len(res.Unfixed), nil
}

// Stats prints statistics about the tikibase.
func Stats(_ context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	eng, err := app.engine()
	if err != nil {
		return err
	}
	report := eng.Scan()
	s := stats.Compute(report.Root, report.Outgoing)
	if app.outputFormat() == output.JSON {
		return output.Value(app.stdout, s)
	}
	return s.WriteText(app.stdout)
}

// Init creates tikibase.json and its schema in the tikibase root.
// An existing tikibase.json is left alone and reported as apperr.ErrAlreadyExists.
func Init(_ context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}
	if store.Exists(tree.ConfigFileName) {
		return fmt.Errorf("init: %s: %w", tree.ConfigFileName, apperr.ErrAlreadyExists)
	}
	data, err := tree.DefaultConfigFile()
	if err != nil {
		return err
	}
	if err := store.Write(tree.ConfigFileName, data); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if !store.Exists(tree.SchemaFileName) {
		if err := writeSchema(store); err != nil {
			return err
		}
	}
	app.logger.Info("init: created", slog.String("path", tree.ConfigFileName))
	return nil
}

// JSONSchema writes the JSON schema of tikibase.json into the tikibase root.
func JSONSchema(_ context.Context, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}
	if err := writeSchema(store); err != nil {
		return err
	}
	app.logger.Info("json-schema: written", slog.String("path", tree.SchemaFileName))
	return nil
}

func writeSchema(store storage.Provider) error {
	schema, err := tree.JSONSchema()
	if err != nil {
		return err
	}
	if err := store.Write(tree.SchemaFileName, schema); err != nil {
		return fmt.Errorf("json-schema: %w", err)
	}
	return nil
}

// Search updates the index and prints the documents matching query.
func Search(ctx context.Context, query string, limit int, opts ...Option) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	svc, closeDB, err := app.openService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := svc.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	if app.outputFormat() == output.JSON {
		return output.Value(app.stdout, results)
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(app.stdout, "%s  %s\n", r.Path, r.Title); err != nil {
			return err
		}
	}
	return nil
}

// printIssues writes the issues of a report.
func printIssues(w io.Writer, format output.Format, report engine.Report) error {
	return output.Messages(w, format, output.Issues(report.Issues))
}
