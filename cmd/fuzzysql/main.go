package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
	"github.com/standardbeagle/fuzzysql/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath == "" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if c.IsSet("dialect") {
		cfg.Dialect = c.String("dialect")
	}
	if c.IsSet("extended") {
		cfg.Extended = c.Bool("extended")
	}
	return cfg, nil
}

// loadBuilder loads the effective config and builds the expression builder
// from it.
func loadBuilder(c *cli.Context) (*config.Config, *fuzzy.Builder, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, err
	}
	b, err := fuzzy.FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:                   "fuzzysql",
		Usage:                  "Build fuzzy relevance expressions for SQL queries",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Writer:                 out,
		ErrWriter:              out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); default looks for .fuzzysql.kdl in the current and home directory",
			},
			&cli.StringFlag{
				Name:    "dialect",
				Aliases: []string{"D"},
				Usage:   "SQL dialect: mysql or sqlite (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "extended",
				Aliases: []string{"x"},
				Usage:   "Use all eight matchers instead of the four core ones",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug output to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file in the temp dir (also works under mcp)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableTo(os.Stderr)
			}
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Debug log: %s\n", path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "expr",
				Aliases:   []string{"e"},
				Usage:     "Print the relevance select item for a field and search value",
				ArgsUsage: "<field> <value>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "terms",
						Usage: "Print each matcher's term on its own line",
					},
				},
				Action: exprCommand,
			},
			{
				Name:      "query",
				Aliases:   []string{"q"},
				Usage:     "Render a SELECT that filters and orders a table by relevance",
				ArgsUsage: "<value>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "table",
						Aliases:  []string{"t"},
						Usage:    "Table to search",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "field",
						Aliases:  []string{"f"},
						Usage:    "Field to score; repeat to OR several fields",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "columns",
						Usage: "Columns to select besides the relevance (default *)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum rows (default from config)",
					},
				},
				Action: queryCommand,
			},
			{
				Name:      "explain",
				Usage:     "Score sample values in process, broken down per matcher",
				ArgsUsage: "<field> <value> <subject>...",
				Action:    explainCommand,
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Run a fuzzy search against a SQLite database",
				ArgsUsage: "<value>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "SQLite database file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "table",
						Aliases:  []string{"t"},
						Usage:    "Table to search",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "field",
						Aliases:  []string{"f"},
						Usage:    "Field to score; repeat to OR several fields",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "columns",
						Usage: "Columns to show besides the relevance (default *)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum rows (default from config)",
					},
					&cli.Float64Flag{
						Name:  "min-relevance",
						Usage: "Drop rows scoring below this (default from config)",
					},
				},
				Action: searchCommand,
			},
			{
				Name:  "weights",
				Usage: "Show the matcher weights and check that each tier outweighs the tiers below it",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with an error when a tier is dominated",
					},
				},
				Action: weightsCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server on stdio",
				Action: mcpCommand,
			},
			{
				Name:  "config",
				Usage: "Configuration management",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "Write a .fuzzysql.kdl with the default settings",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file",
								Value:   config.KDLFileName,
							},
							&cli.BoolFlag{
								Name:    "force",
								Aliases: []string{"f"},
								Usage:   "Overwrite an existing file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration as KDL",
						Action: configShowCommand,
					},
					{
						Name:   "validate",
						Usage:  "Load and validate the configuration",
						Action: configValidateCommand,
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
