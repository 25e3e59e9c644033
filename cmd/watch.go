package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/ui"
)

// watch follows the backend and prints a line for every external
// change until interrupted.
func (a *app) watch(ctx context.Context, args []string) error {
	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}

	events := eng.Subscribe()
	eng.Start(ctx)
	defer eng.Close()

	fmt.Fprintf(a.out, "Watching %s (ctrl+c to stop)\n", a.cfg.Location())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			stamp := time.Now().Format("15:04:05")
			tasks := eng.Snapshot().Tasks()
			fmt.Fprintf(a.out, "%s reloaded, %d tasks\n", stamp, len(tasks))
			for _, anomaly := range ev.Anomalies {
				color.New(color.FgYellow).Fprintf(a.out, "  line %d skipped: %s\n",
					anomaly.Line+1, anomaly.Reason)
			}
		}
	}
}

// tui launches the interactive list.
func (a *app) tui(ctx context.Context, args []string) error {
	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	eng.Start(ctx)
	defer eng.Close()

	return ui.RunTUI(ctx, eng, a.viewOptions())
}

// check verifies the configured backend is reachable and readable.
func (a *app) check(ctx context.Context, args []string) error {
	backend, err := storage.Open(a.cfg.Location(), a.logger)
	if err != nil {
		return err
	}

	if dav, ok := backend.(*storage.WebDAV); ok {
		if err := dav.Check(ctx); err != nil {
			return fmt.Errorf("webdav check failed: %w", err)
		}
		color.New(color.FgGreen).Fprintf(a.out, "WebDAV share reachable at %s\n", a.cfg.Location())
		return nil
	}

	if _, err := backend.Read(ctx); err != nil {
		if storage.IsNotFound(err) {
			fmt.Fprintf(a.out, "Todo file %s does not exist yet; it will be created on first write.\n",
				a.cfg.TodoFile)
			return nil
		}
		return fmt.Errorf("reading %s: %w", a.cfg.TodoFile, err)
	}
	color.New(color.FgGreen).Fprintf(a.out, "Todo file %s is readable.\n", a.cfg.TodoFile)
	return nil
}
