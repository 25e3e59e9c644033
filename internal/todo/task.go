// Package todo parses, mutates, and serializes markdown todo documents.
//
// A document is an ordered list of lines. Lines that match the checkbox
// grammar carry a structured Task; every other line is kept verbatim. Each
// line also keeps its original bytes, so a document that has not been
// mutated serializes back to exactly the bytes it was parsed from.
package todo

// Task is one parsed todo entry.
type Task struct {
	Done  bool
	Title string

	// Project and Place are the +tag and @tag values; empty means untagged.
	Project string
	Place   string

	Due        *Date
	Completion *Date

	// Reference is a free-form link token ([[...]] on the wire).
	Reference string

	// Marker is the stable ^id of the line, if any.
	Marker string

	// Section is derived from the nearest heading above the task. It is
	// display metadata and never serialized back into the line.
	Section string

	// Indent is the leading whitespace of the source line, preserved so a
	// rewritten line keeps its nesting.
	Indent string
}

// Overdue reports whether the task is due strictly before today.
func (t *Task) Overdue(today Date) bool {
	return t.Due != nil && t.Due.Before(today)
}

// DueBy reports whether the task is due today, overdue, or undated.
func (t *Task) DueBy(today Date) bool {
	return t.Due == nil || !t.Due.After(today)
}
