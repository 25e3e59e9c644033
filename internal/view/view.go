// Package view derives filtered, sorted projections of a document for
// presentation. Everything here is a pure function over a snapshot: the
// same document and options always produce the same ordered output.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/todomd/todomd/internal/todo"
)

// SortMode selects how visible tasks are grouped and ordered.
type SortMode int

const (
	ByProject SortMode = iota
	ByPlace
	ByDue
)

func (m SortMode) String() string {
	switch m {
	case ByPlace:
		return "place"
	case ByDue:
		return "due"
	default:
		return "project"
	}
}

// ParseSortMode maps a config or flag value to a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project", "topic", "":
		return ByProject, nil
	case "place", "location":
		return ByPlace, nil
	case "due", "date":
		return ByDue, nil
	}
	return ByProject, fmt.Errorf("unknown sort mode %q", s)
}

// Next cycles through the sort modes, for interactive toggling.
func (m SortMode) Next() SortMode {
	switch m {
	case ByProject:
		return ByPlace
	case ByPlace:
		return ByDue
	default:
		return ByProject
	}
}

// Labels for tasks that carry no grouping tag.
const (
	NoProjectLabel = "No project"
	NoPlaceLabel   = "No place"
)

// Options control filtering and ordering. Today must be supplied by the
// caller so due filtering stays deterministic.
type Options struct {
	ShowDone bool
	DueOnly  bool
	Today    todo.Date
	Sort     SortMode
	Query    string
}

// Entry is one visible task together with its document line index, which
// mutation calls address.
type Entry struct {
	Index int
	Task  *todo.Task
}

// Group is a labeled run of entries. ByDue produces a single group with
// an empty label.
type Group struct {
	Label   string
	Entries []Entry
}

// Render projects the document into groups per the options. The document
// is never modified.
func Render(doc *todo.Document, opts Options) []Group {
	entries := filter(doc, opts)
	switch opts.Sort {
	case ByPlace:
		return groupBy(entries, func(t *todo.Task) string { return t.Place }, NoPlaceLabel)
	case ByDue:
		return []Group{{Entries: sortByDue(entries)}}
	default:
		return groupBy(entries, func(t *todo.Task) string { return t.Project }, NoProjectLabel)
	}
}

func filter(doc *todo.Document, opts Options) []Entry {
	q := strings.ToLower(strings.TrimSpace(opts.Query))
	var out []Entry
	for _, ref := range doc.Tasks() {
		t := ref.Task
		if !visible(t, opts) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		out = append(out, Entry{Index: ref.Index, Task: t})
	}
	return out
}

// visible applies the done and due-only filters. Undated tasks always
// pass the due filter.
func visible(t *todo.Task, opts Options) bool {
	if t.Done && !opts.ShowDone {
		return false
	}
	if opts.DueOnly && t.Due != nil && opts.Today.Before(*t.Due) {
		return false
	}
	return true
}

// groupBy buckets entries by key, preserving document order inside each
// bucket. Groups come out sorted case-insensitively by label, with the
// default group for untagged tasks last.
func groupBy(entries []Entry, key func(*todo.Task) string, defaultLabel string) []Group {
	buckets := make(map[string][]Entry)
	var labels []string
	for _, e := range entries {
		k := key(e.Task)
		if k == "" {
			k = defaultLabel
		}
		if _, seen := buckets[k]; !seen {
			labels = append(labels, k)
		}
		buckets[k] = append(buckets[k], e)
	}

	sort.SliceStable(labels, func(i, j int) bool {
		li, lj := labels[i], labels[j]
		if li == defaultLabel {
			return false
		}
		if lj == defaultLabel {
			return true
		}
		return strings.ToLower(li) < strings.ToLower(lj)
	})

	groups := make([]Group, 0, len(labels))
	for _, label := range labels {
		groups = append(groups, Group{Label: label, Entries: buckets[label]})
	}
	return groups
}

// sortByDue orders entries by due date ascending, undated tasks first.
// Ties keep document order.
func sortByDue(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Task.Due, out[j].Task.Due
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return true
		case dj == nil:
			return false
		default:
			return di.Before(*dj)
		}
	})
	return out
}

// SearchResult buckets title matches: Current holds hits that pass the
// active visibility filter, Open and Done hold the remaining open and
// completed hits.
type SearchResult struct {
	Current []Entry
	Open    []Entry
	Done    []Entry
}

// Search finds tasks whose title contains the query, case-insensitively.
// Visibility options decide which hits count as Current; hits hidden by
// the filter still show up in Open or Done.
func Search(doc *todo.Document, query string, opts Options) SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	var res SearchResult
	inCurrent := make(map[int]bool)
	for _, ref := range doc.Tasks() {
		t := ref.Task
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		if visible(t, opts) {
			res.Current = append(res.Current, Entry{Index: ref.Index, Task: t})
			inCurrent[ref.Index] = true
		}
	}
	for _, ref := range doc.Tasks() {
		t := ref.Task
		if inCurrent[ref.Index] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) {
			continue
		}
		e := Entry{Index: ref.Index, Task: t}
		if t.Done {
			res.Done = append(res.Done, e)
		} else {
			res.Open = append(res.Open, e)
		}
	}
	return res
}
