package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/todomd/todomd/internal/view"
)

// search finds tasks by title and prints them bucketed: hits in the
// current filtered list first, then other open hits, then completed
// ones.
func (a *app) search(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("usage: todomd search <query>")
	}

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}

	res := eng.Search(query, a.viewOptions())
	if len(res.Current)+len(res.Open)+len(res.Done) == 0 {
		color.New(color.Faint).Fprintf(a.out, "No tasks matching %q.\n", query)
		return nil
	}

	a.printBucket("Matches", res.Current)
	a.printBucket("Other open tasks", res.Open)
	a.printBucket("Completed", res.Done)
	return nil
}

func (a *app) printBucket(label string, entries []view.Entry) {
	if len(entries) == 0 {
		return
	}
	color.New(color.Bold).Fprintln(a.out, label)
	for _, e := range entries {
		box := " "
		if e.Task.Done {
			box = "x"
		}
		due := ""
		if e.Task.Due != nil {
			due = " due:" + e.Task.Due.String()
		}
		fmt.Fprintf(a.out, "  %4d [%s] %s%s\n", e.Index+1, box, e.Task.Title, due)
	}
	fmt.Fprintln(a.out)
}
