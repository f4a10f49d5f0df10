package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tikibase/internal"
	pkgconfig "github.com/starford/tikibase/pkg/config"
)

var version = "dev"

// maxExitCode caps counts returned as exit status.
const maxExitCode = 255

// exitCode is set by commands whose exit status reports a count.
var exitCode int

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithDir(cmd.String("dir")),
		internal.WithVersion(version),
	}
	if f := cmd.String("format"); f != "" {
		opts = append(opts, internal.WithFormat(f))
	}
	return opts, nil
}

// action adapts an internal command to a cli action.
func action(run func(ctx context.Context, opts ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		return run(ctx, opts...)
	}
}

// countAction is like action, but the returned count becomes the exit code.
func countAction(run func(ctx context.Context, opts ...internal.Option) (int, error)) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		n, err := run(ctx, opts...)
		if err != nil {
			return err
		}
		exitCode = min(n, maxExitCode)
		return nil
	}
}

func search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("search: missing query")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Search(ctx, query, int(cmd.Int("limit")), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "tikibase",
		Usage:   "Checks and fixes a knowledge base of interlinked Markdown documents",
		Version: version,
		Action:  countAction(internal.Check),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Root directory of the tikibase",
				Value:   ".",
				Sources: cli.EnvVars("TIKIBASE_DIR"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text or json (overrides the config file)",
				Sources: cli.EnvVars("TIKIBASE_FORMAT"),
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to the application config file; missing file means defaults",
				DefaultText: "tikibase.yaml",
				Value:       "tikibase.yaml",
				Sources:     cli.EnvVars("TIKIBASE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Print all issues; the exit code is their number",
				Action: countAction(internal.Check),
			},
			{
				Name:   "fix",
				Usage:  "Fix all fixable issues without printing anything",
				Action: action(internal.Fix),
			},
			{
				Name:   "pitstop",
				Usage:  "Fix all fixable issues and print the rest; the exit code is their number",
				Action: countAction(internal.Pitstop),
			},
			{
				Name:   "stats",
				Usage:  "Print statistics about the tikibase",
				Action: action(internal.Stats),
			},
			{
				Name:   "init",
				Usage:  "Create tikibase.json in the tikibase root",
				Action: action(internal.Init),
			},
			{
				Name:   "json-schema",
				Usage:  "Write the JSON schema of tikibase.json",
				Action: action(internal.JSONSchema),
			},
			{
				Name:      "search",
				Usage:     "Full-text search through the documents",
				ArgsUsage: "<terms>",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   20,
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Check again whenever a file changes",
				Action: action(internal.Watch),
			},
			{
				Name:   "serve",
				Usage:  "Serve the report over HTTP with live updates",
				Action: action(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Serve tikibase tools to LLM clients over MCP (stdio)",
				Action: action(internal.MCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(exitCode)
}
