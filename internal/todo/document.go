package todo

import "strings"

// Line is one line of a todo file. Raw always holds the exact source bytes
// (without the newline); Task is non-nil only for lines matching the task
// grammar.
type Line struct {
	Raw  string
	Task *Task
}

// IsTask reports whether the line carries a parsed task.
func (l Line) IsTask() bool {
	return l.Task != nil
}

// Document is an immutable snapshot of a whole todo file. Mutation helpers
// return a new Document and never modify the receiver, so snapshots may be
// read concurrently without locking.
type Document struct {
	Lines []Line

	// TrailingNewline records whether the source ended with a newline.
	TrailingNewline bool
}

// Bytes serializes the document. Unmutated lines reproduce their source
// bytes exactly; mutated lines were already rendered canonically when the
// mutation was applied.
func (d *Document) Bytes() []byte {
	if len(d.Lines) == 0 {
		return nil
	}
	var b strings.Builder
	for i, line := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Raw)
	}
	if d.TrailingNewline {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Task returns the task at line index i, or nil if the index is out of
// range or the line is not a task.
func (d *Document) Task(i int) *Task {
	if i < 0 || i >= len(d.Lines) {
		return nil
	}
	return d.Lines[i].Task
}

// Ref pairs a task with its line index, the task's only identity.
type Ref struct {
	Index int
	Task  *Task
}

// Tasks returns all task lines in document order.
func (d *Document) Tasks() []Ref {
	var refs []Ref
	for i := range d.Lines {
		if t := d.Lines[i].Task; t != nil {
			refs = append(refs, Ref{Index: i, Task: t})
		}
	}
	return refs
}

// WithTask returns a copy of the document with line i replaced by a task
// line. Only that line's bytes change; every other line is untouched.
func (d *Document) WithTask(i int, raw string, t *Task) *Document {
	lines := make([]Line, len(d.Lines))
	copy(lines, d.Lines)
	lines[i] = Line{Raw: raw, Task: t}
	return &Document{Lines: lines, TrailingNewline: d.TrailingNewline}
}

// InsertTask returns a copy of the document with a task line inserted at
// i. The result always ends with a newline; inserting into an empty or
// unterminated file terminates it.
func (d *Document) InsertTask(i int, raw string, t *Task) *Document {
	lines := make([]Line, 0, len(d.Lines)+1)
	lines = append(lines, d.Lines[:i]...)
	lines = append(lines, Line{Raw: raw, Task: t})
	lines = append(lines, d.Lines[i:]...)
	return &Document{Lines: lines, TrailingNewline: true}
}
