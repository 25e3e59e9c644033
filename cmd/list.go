package cmd

import (
	"context"
	"flag"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
)

// list renders the filtered, grouped task table.
func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todomd list", flag.ContinueOnError)
	showDone := fs.Bool("done", a.cfg.ShowDone, "Include completed tasks")
	dueOnly := fs.Bool("due", a.cfg.ShowDueOnly, "Hide tasks due in the future")
	sortMode := fs.String("sort", a.cfg.SortMode, "Sort mode: project, place or due")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sort, err := view.ParseSortMode(*sortMode)
	if err != nil {
		return err
	}
	opts := a.viewOptions()
	opts.ShowDone = *showDone
	opts.DueOnly = *dueOnly
	opts.Sort = sort

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}

	groups := eng.View(opts)
	if len(groups) == 0 {
		color.New(color.Faint).Fprintln(a.out, "No tasks to show.")
		return nil
	}

	groupLabel := color.New(color.Bold, color.FgCyan)
	for _, g := range groups {
		if g.Label != "" {
			groupLabel.Fprintln(a.out, g.Label)
		}
		a.renderGroup(g, opts.Today)
	}
	return nil
}

func (a *app) renderGroup(g view.Group, today todo.Date) {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false

	t.AppendHeader(table.Row{"Line", "", "Title", "Project", "Place", "Due", "Ref"})
	for _, e := range g.Entries {
		t.AppendRow(taskRow(e, today))
	}
	t.Render()
}

func taskRow(e view.Entry, today todo.Date) table.Row {
	task := e.Task
	box := " "
	if task.Done {
		box = "x"
	}

	due := ""
	if task.Due != nil {
		due = task.Due.String()
		if task.Overdue(today) {
			due = text.FgRed.Sprintf("%s", due)
		}
	}

	title := task.Title
	if task.Done {
		title = text.Faint.Sprintf("%s", title)
	}

	return table.Row{e.Index + 1, box, title, task.Project, task.Place, due, task.Reference}
}
