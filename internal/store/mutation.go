package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/todomd/todomd/internal/todo"
)

// ErrInvalidIndex marks a mutation aimed at an out-of-range or non-task
// line. Correct callers never hit this; it is a contract violation, not a
// recoverable data condition.
var ErrInvalidIndex = errors.New("invalid task index")

// Mutation is one pure document edit. Applying a mutation produces a new
// document; the input is never modified.
type Mutation interface {
	apply(c *todo.Codec, doc *todo.Document) (*todo.Document, error)
}

// ToggleDone flips the done state of the task at Index. Marking done
// stamps Today as the completion date; reopening removes the completion
// marker entirely. Today is supplied by the caller so the operation stays
// deterministic.
type ToggleDone struct {
	Index int
	Today todo.Date
}

func (m ToggleDone) apply(c *todo.Codec, doc *todo.Document) (*todo.Document, error) {
	task, err := taskAt(doc, m.Index)
	if err != nil {
		return nil, err
	}
	next := *task
	next.Done = !task.Done
	if next.Done {
		d := m.Today
		next.Completion = &d
	} else {
		next.Completion = nil
	}
	return replaceTask(c, doc, m.Index, &next), nil
}

// FieldEdit carries the new values for an EditFields mutation. Nil fields
// are left untouched; empty strings clear project, place, and reference.
type FieldEdit struct {
	Title     *string
	Project   *string
	Place     *string
	Reference *string
	Due       *todo.Date
	ClearDue  bool
	Done      *bool
}

// EditFields rewrites the fields of the task at Index. Today is used to
// stamp a completion date when the edit marks the task done.
type EditFields struct {
	Index int
	Edit  FieldEdit
	Today todo.Date
}

func (m EditFields) apply(c *todo.Codec, doc *todo.Document) (*todo.Document, error) {
	task, err := taskAt(doc, m.Index)
	if err != nil {
		return nil, err
	}
	next := *task
	if m.Edit.Title != nil {
		next.Title = *m.Edit.Title
	}
	if m.Edit.Project != nil {
		next.Project = *m.Edit.Project
	}
	if m.Edit.Place != nil {
		next.Place = *m.Edit.Place
	}
	if m.Edit.Reference != nil {
		next.Reference = *m.Edit.Reference
	}
	if m.Edit.ClearDue {
		next.Due = nil
	} else if m.Edit.Due != nil {
		d := *m.Edit.Due
		next.Due = &d
	}
	if m.Edit.Done != nil {
		next.Done = *m.Edit.Done
	}
	// Keep the completion date consistent with the done state. An
	// already-done task keeps its original completion date.
	if next.Done {
		if next.Completion == nil {
			d := m.Today
			next.Completion = &d
		}
	} else {
		next.Completion = nil
	}
	return replaceTask(c, doc, m.Index, &next), nil
}

// Postpone moves the due date of the task at Index to Until.
type Postpone struct {
	Index int
	Until todo.Date
}

func (m Postpone) apply(c *todo.Codec, doc *todo.Document) (*todo.Document, error) {
	task, err := taskAt(doc, m.Index)
	if err != nil {
		return nil, err
	}
	next := *task
	d := m.Until
	next.Due = &d
	return replaceTask(c, doc, m.Index, &next), nil
}

// AddTask appends a new open task due Today. The task is inserted above
// the document's fence line when one exists, otherwise at the end.
type AddTask struct {
	Title string
	Today todo.Date
}

func (m AddTask) apply(c *todo.Codec, doc *todo.Document) (*todo.Document, error) {
	if m.Title == "" {
		return nil, fmt.Errorf("add task: empty title")
	}
	d := m.Today
	task := &todo.Task{Title: m.Title, Due: &d}

	index := len(doc.Lines)
	fence := c.Syntax().Fence
	for i, line := range doc.Lines {
		if !line.IsTask() && strings.TrimSpace(line.Raw) == fence {
			index = i
			break
		}
	}
	return doc.InsertTask(index, c.FormatTask(task), task), nil
}

func taskAt(doc *todo.Document, i int) (*todo.Task, error) {
	task := doc.Task(i)
	if task == nil {
		return nil, fmt.Errorf("line %d: %w", i, ErrInvalidIndex)
	}
	return task, nil
}

func replaceTask(c *todo.Codec, doc *todo.Document, i int, task *todo.Task) *todo.Document {
	return doc.WithTask(i, c.FormatTask(task), task)
}
