// Package main is the entry point for the piston console host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/dshills/piston/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app      app.Options
	envFile  string
	headless bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading %s: %v\n", opts.envFile, err)
		return 1
	}

	application, err := app.New(opts.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var in app.LineReader
	if !opts.headless {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "> ",
			HistoryFile:     historyFile(),
			AutoComplete:    application.Completer(),
			InterruptPrompt: "^C",
			EOFPrompt:       "stop",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open console: %v\n", err)
			return 1
		}
		in = rl
	}

	if err := application.Run(ctx, in); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "piston")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool

	flag.StringVar(&opts.app.ConfigPath, "config", "piston.toml", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.app.ConfigPath, "c", "piston.toml", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.app.PluginDir, "plugins", "", "Plugin directory (overrides config)")
	flag.StringVar(&opts.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.envFile, "env", ".env", "Environment file loaded before the config")
	flag.BoolVar(&opts.headless, "headless", false, "Run without the interactive console")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "piston - command router and event bus host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: piston [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  piston                      Run with ./piston.toml and ./plugins\n")
		fmt.Fprintf(os.Stderr, "  piston -c server.yaml       Use a YAML config\n")
		fmt.Fprintf(os.Stderr, "  piston -headless            Run plugins and jobs without a console\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("piston %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.app.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.app.LogLevel)
		os.Exit(1)
	}
	return opts
}
