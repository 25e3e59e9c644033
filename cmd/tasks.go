package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/todomd/todomd/internal/store"
	"github.com/todomd/todomd/internal/todo"
)

// add appends a new task due today.
func (a *app) add(ctx context.Context, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("usage: todomd add <title>")
	}

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	if err := eng.Add(ctx, title, todo.Today()); err != nil {
		return fmt.Errorf("adding task: %w", err)
	}
	fmt.Fprintf(a.out, "Added %q\n", title)
	return nil
}

// toggle flips the done state of the task on the given file line.
func (a *app) toggle(ctx context.Context, args []string) error {
	index, rest, err := lineArg(args, "toggle")
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	if err := eng.Toggle(ctx, index, todo.Today()); err != nil {
		return fmt.Errorf("toggling line %d: %w", index+1, err)
	}

	t := eng.Snapshot().Task(index)
	if t != nil && t.Done {
		fmt.Fprintf(a.out, "Done: %s\n", t.Title)
	} else if t != nil {
		fmt.Fprintf(a.out, "Reopened: %s\n", t.Title)
	}
	return nil
}

// edit rewrites selected fields of the task on the given file line.
// Flags that are not passed leave the field untouched; passing an empty
// value clears it.
func (a *app) edit(ctx context.Context, args []string) error {
	index, rest, err := lineArg(args, "edit")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("todomd edit", flag.ContinueOnError)
	title := fs.String("title", "", "New title")
	project := fs.String("project", "", "New project tag (empty clears)")
	place := fs.String("place", "", "New place tag (empty clears)")
	due := fs.String("due", "", "New due date YYYY-MM-DD (\"none\" clears)")
	ref := fs.String("ref", "", "New reference (empty clears)")
	done := fs.Bool("done", false, "Mark as done")
	undone := fs.Bool("undone", false, "Mark as open")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if *done && *undone {
		return fmt.Errorf("-done and -undone are mutually exclusive")
	}

	var edit store.FieldEdit
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			edit.Title = title
		case "project":
			edit.Project = project
		case "place":
			edit.Place = place
		case "ref":
			edit.Reference = ref
		case "done":
			if *done {
				v := true
				edit.Done = &v
			}
		case "undone":
			if *undone {
				v := false
				edit.Done = &v
			}
		}
	})
	if err := applyDueFlag(&edit, fs, *due); err != nil {
		return err
	}

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	if err := eng.EditFields(ctx, index, edit, todo.Today()); err != nil {
		return fmt.Errorf("editing line %d: %w", index+1, err)
	}
	fmt.Fprintf(a.out, "Updated line %d\n", index+1)
	return nil
}

func applyDueFlag(edit *store.FieldEdit, fs *flag.FlagSet, value string) error {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "due" {
			passed = true
		}
	})
	if !passed {
		return nil
	}
	if value == "" || value == "none" {
		edit.ClearDue = true
		return nil
	}
	d, err := todo.ParseDate(value)
	if err != nil {
		return fmt.Errorf("invalid due date %q: %w", value, err)
	}
	edit.Due = &d
	return nil
}

// postpone moves the due date of the task on the given file line.
func (a *app) postpone(ctx context.Context, args []string) error {
	index, rest, err := lineArg(args, "postpone")
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: todomd postpone <line> <tomorrow|+N|sometime|YYYY-MM-DD>")
	}

	until, err := parseUntil(rest[0], todo.Today())
	if err != nil {
		return err
	}

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	if err := eng.Postpone(ctx, index, until); err != nil {
		return fmt.Errorf("postponing line %d: %w", index+1, err)
	}
	fmt.Fprintf(a.out, "Postponed line %d to %s\n", index+1, until)
	return nil
}

// parseUntil resolves a postpone target relative to today.
func parseUntil(s string, today todo.Date) (todo.Date, error) {
	switch strings.ToLower(s) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "sometime":
		return todo.Sometime, nil
	}
	if strings.HasPrefix(s, "+") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return todo.Date{}, fmt.Errorf("invalid day offset %q", s)
		}
		return today.AddDays(n), nil
	}
	d, err := todo.ParseDate(s)
	if err != nil {
		return todo.Date{}, fmt.Errorf("invalid postpone target %q: %w", s, err)
	}
	return d, nil
}

// lineArg parses the leading 1-based line number argument.
func lineArg(args []string, command string) (int, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("usage: todomd %s <line> ...", command)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, nil, fmt.Errorf("invalid line number %q", args[0])
	}
	return n - 1, args[1:], nil
}
