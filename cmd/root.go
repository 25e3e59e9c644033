// Package cmd implements the CLI command structure for todomd.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/todomd/todomd/internal/config"
	"github.com/todomd/todomd/internal/engine"
	"github.com/todomd/todomd/internal/logging"
	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the todomd CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todomd", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(os.Stdout)
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Timestamps: cfg.LogTimestamps,
	})

	// No subcommand means list.
	subcommand := "list"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	app := &app{cfg: cfg, logger: logger, out: os.Stdout}

	switch subcommand {
	case "list", "ls":
		return app.list(ctx, remainingArgs)
	case "add":
		return app.add(ctx, remainingArgs)
	case "toggle", "done":
		return app.toggle(ctx, remainingArgs)
	case "edit":
		return app.edit(ctx, remainingArgs)
	case "postpone":
		return app.postpone(ctx, remainingArgs)
	case "search":
		return app.search(ctx, remainingArgs)
	case "watch":
		return app.watch(ctx, remainingArgs)
	case "tui":
		return app.tui(ctx, remainingArgs)
	case "check":
		return app.check(ctx, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand(os.Stdout)
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer
}

// openEngine builds an engine for the configured location and loads the
// current document.
func (a *app) openEngine(ctx context.Context) (*engine.Engine, error) {
	eng, err := engine.New(a.cfg.Location(), a.logger,
		engine.WithDebounce(a.cfg.Debounce()),
		engine.WithPollInterval(a.cfg.PollInterval()))
	if err != nil {
		return nil, err
	}
	if err := eng.Load(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func (a *app) viewOptions() view.Options {
	return view.Options{
		ShowDone: a.cfg.ShowDone,
		DueOnly:  a.cfg.ShowDueOnly,
		Today:    todo.Today(),
		Sort:     a.cfg.Sort,
	}
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "todomd %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "todomd - a todo list living in a markdown file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todomd [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list                List tasks (default command)")
	fmt.Fprintln(w, "  add <title>         Add a task due today")
	fmt.Fprintln(w, "  toggle <line>       Toggle done state of the task on that line")
	fmt.Fprintln(w, "  edit <line>         Edit fields of the task on that line")
	fmt.Fprintln(w, "  postpone <line> <when>  Move the due date (tomorrow, +N, sometime, or a date)")
	fmt.Fprintln(w, "  search <query>      Find tasks by title")
	fmt.Fprintln(w, "  watch               Follow external changes to the file")
	fmt.Fprintln(w, "  tui                 Launch the interactive terminal UI")
	fmt.Fprintln(w, "  check               Verify the storage backend is reachable")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
