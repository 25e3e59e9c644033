// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/todomd/todomd/internal/engine"
	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	groupStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	footerStyle  = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tokenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// RunTUI starts the interactive list over an already loaded engine.
func RunTUI(ctx context.Context, eng *engine.Engine, opts view.Options) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(ctx, eng, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// row is one rendered line: a group header when entry is nil, a task
// otherwise.
type row struct {
	label string
	entry *view.Entry
}

type tuiModel struct {
	ctx    context.Context
	eng    *engine.Engine
	opts   view.Options
	events <-chan engine.Event

	rows    []row
	cursor  int
	lastErr error
}

type reloadMsg struct{}

func newTUIModel(ctx context.Context, eng *engine.Engine, opts view.Options) *tuiModel {
	m := &tuiModel{
		ctx:    ctx,
		eng:    eng,
		opts:   opts,
		events: eng.Subscribe(),
	}
	m.rebuild()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return waitForReload(m.events)
}

func waitForReload(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return reloadMsg{}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Sessions can cross midnight; stamps and overdue marks follow
		// the wall clock, not the start time.
		m.opts.Today = todo.Today()
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case " ":
			m.mutate(func(idx int) error {
				return m.eng.Toggle(m.ctx, idx, m.opts.Today)
			})
		case "t":
			m.postpone(m.opts.Today)
		case "+":
			m.postpone(m.opts.Today.AddDays(1))
		case "s":
			m.postpone(todo.Sometime)
		case "d":
			m.opts.ShowDone = !m.opts.ShowDone
			m.rebuild()
		case "o":
			m.opts.DueOnly = !m.opts.DueOnly
			m.rebuild()
		case "tab":
			m.opts.Sort = m.opts.Sort.Next()
			m.rebuild()
		case "r":
			m.lastErr = m.eng.Load(m.ctx)
			m.rebuild()
		}
	case reloadMsg:
		m.rebuild()
		return m, waitForReload(m.events)
	}
	return m, nil
}

// mutate runs an engine operation against the task under the cursor and
// refreshes the rows from the new snapshot.
func (m *tuiModel) mutate(op func(index int) error) {
	e := m.current()
	if e == nil {
		return
	}
	m.lastErr = op(e.Index)
	m.rebuild()
}

func (m *tuiModel) postpone(until todo.Date) {
	m.mutate(func(idx int) error {
		return m.eng.Postpone(m.ctx, idx, until)
	})
}

func (m *tuiModel) current() *view.Entry {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].entry
}

// rebuild flattens the grouped view into rows and keeps the cursor on a
// task line.
func (m *tuiModel) rebuild() {
	groups := m.eng.View(m.opts)
	m.rows = m.rows[:0]
	for _, g := range groups {
		if g.Label != "" {
			m.rows = append(m.rows, row{label: g.Label})
		}
		for i := range g.Entries {
			m.rows = append(m.rows, row{entry: &g.Entries[i]})
		}
	}
	m.clampCursor()
}

func (m *tuiModel) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.rows[m.cursor].entry == nil {
		m.move(1)
	}
}

// move steps the cursor in the given direction, skipping group headers.
func (m *tuiModel) move(dir int) {
	for i := m.cursor + dir; i >= 0 && i < len(m.rows); i += dir {
		if m.rows[i].entry != nil {
			m.cursor = i
			return
		}
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("todomd") + "  " + footerStyle.Render(m.statusLine()) + "\n\n")

	if len(m.rows) == 0 {
		b.WriteString("  Nothing to show.\n")
	}
	for i, r := range m.rows {
		if r.entry == nil {
			b.WriteString(groupStyle.Render(r.label) + "\n")
			continue
		}
		line := m.formatEntry(*r.entry)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("error: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString(footerStyle.Render("space toggle | t today | + tomorrow | s sometime | d done | o due-only | tab sort | r reload | q quit") + "\n")
	return b.String()
}

func (m *tuiModel) statusLine() string {
	parts := []string{"sort: " + m.opts.Sort.String()}
	if m.opts.ShowDone {
		parts = append(parts, "done shown")
	}
	if m.opts.DueOnly {
		parts = append(parts, "due only")
	}
	return strings.Join(parts, " | ")
}

func (m *tuiModel) formatEntry(e view.Entry) string {
	t := e.Task
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}

	var tokens []string
	if t.Project != "" {
		tokens = append(tokens, "+"+t.Project)
	}
	if t.Place != "" {
		tokens = append(tokens, "@"+t.Place)
	}
	if t.Due != nil {
		d := "due:" + t.Due.String()
		if t.Overdue(m.opts.Today) {
			d = overdueStyle.Render(d)
		}
		tokens = append(tokens, d)
	}

	title := t.Title
	if t.Done {
		title = doneStyle.Render(title)
	}
	line := box + " " + title
	if len(tokens) > 0 {
		line += " " + tokenStyle.Render(strings.Join(tokens, " "))
	}
	return line
}

// IsTTY returns true if stdout is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, _ := f.Stat()
	return (info.Mode() & os.ModeCharDevice) != 0
}
