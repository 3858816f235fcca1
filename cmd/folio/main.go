package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/folio"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/core"
	"github.com/urfave/cli/v2"
)

// openLibrary is replaced in tests to avoid a real model provider.
var openLibrary = func(cfg *config.AppConfig, logger *slog.Logger) (*folio.Library, error) {
	return folio.Open(cfg, folio.WithLogger(logger))
}

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	sessionFlag := &cli.StringFlag{
		Name:     "session",
		Aliases:  []string{"s"},
		Usage:    "Session ID",
		Required: true,
	}
	langFlag := &cli.StringFlag{
		Name:  "lang",
		Usage: "Response language (" + languageList() + ")",
	}

	return &cli.App{
		Name:  "folio",
		Usage: "Read a manuscript with a language model: distill it, then ask about it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config (default ./folio.yaml, then ~/.config/folio/config.yaml)",
				EnvVars: []string{"FOLIO_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract axioms, snippets and text from documents, one session each",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					langFlag,
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Documents loaded in parallel (default from config)",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask one question and stream the answer",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags:     []cli.Flag{sessionFlag, langFlag},
			},
			{
				Name:   "chat",
				Usage:  "Chat interactively with a session",
				Action: chatCommand,
				Flags:  []cli.Flag{sessionFlag, langFlag},
			},
			{
				Name:   "snippets",
				Usage:  "Print the quotes extracted from a session's document",
				Action: snippetsCommand,
				Flags:  []cli.Flag{sessionFlag},
			},
			{
				Name:  "sessions",
				Usage: "Manage stored sessions",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List sessions, most recent first",
						Action: sessionsListCommand,
					},
					{
						Name:      "show",
						Usage:     "Show a session's metadata, axioms and history",
						ArgsUsage: "ID",
						Action:    sessionsShowCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a session",
						ArgsUsage: "ID",
						Action:    sessionsDeleteCommand,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Rank the chunks of a local file against a query, without a model",
				ArgsUsage: "FILE QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Override the number of chunks returned",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (default from config)",
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Require this bearer token on API routes",
						EnvVars: []string{"FOLIO_API_TOKEN"},
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Ingest documents as they appear or change in a directory",
				ArgsUsage: "DIR",
				Action:    watchCommand,
				Flags:     []cli.Flag{langFlag},
			},
			{
				Name:  "config",
				Usage: "Inspect or create the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "Write the default configuration",
						ArgsUsage: "[PATH]",
						Action:    configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "force",
								Aliases: []string{"f"},
								Usage:   "Overwrite an existing file",
							},
						},
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
				},
			},
		},
	}
}

func languageList() string {
	tags := make([]string, len(core.Languages))
	for i, l := range core.Languages {
		tags[i] = string(l)
	}
	return strings.Join(tags, ", ")
}

// loadConfig honors --config, falling back to the default lookup.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded configuration", "path", path)
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "text", "":
		handler = slog.NewTextHandler(c.App.ErrWriter, opts)
	case "json":
		handler = slog.NewJSONHandler(c.App.ErrWriter, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
