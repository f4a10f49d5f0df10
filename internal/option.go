package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	dir     string
	format  string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDir sets the root directory of the tikibase.
func WithDir(dir string) Option {
	return func(a *application) {
		a.dir = dir
	}
}

// WithFormat overrides the configured output format.
func WithFormat(format string) Option {
	return func(a *application) {
		a.format = format
	}
}

// WithOutput sets where reports are written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithLogOutput sets where log records are written.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.stderr = w
	}
}

// WithLogger replaces the JSON logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(version string) Option {
	return func(a *application) {
		a.version = version
	}
}
