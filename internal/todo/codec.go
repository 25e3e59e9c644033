package todo

import (
	"fmt"
	"regexp"
	"strings"
)

// checkbox matcher, tolerant of spacing and an upper-case X.
var boxRe = regexp.MustCompile(`^(\s*)-\s*\[([ xX])\]\s?(.*)$`)

var dateShapeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Codec translates between raw file bytes and Documents for one Syntax.
type Codec struct {
	syntax Syntax

	project    *regexp.Regexp
	place      *regexp.Regexp
	due        *regexp.Regexp
	refBracket *regexp.Regexp
	refPrefix  *regexp.Regexp
	marker     *regexp.Regexp
	completion *regexp.Regexp
}

// NewCodec compiles the token matchers for the given syntax.
func NewCodec(s Syntax) *Codec {
	return &Codec{
		syntax:     s,
		project:    regexp.MustCompile(regexp.QuoteMeta(s.ProjectSigil) + `(\S+)`),
		place:      regexp.MustCompile(regexp.QuoteMeta(s.PlaceSigil) + `(\S+)`),
		due:        regexp.MustCompile(regexp.QuoteMeta(s.DuePrefix) + `(\S+)`),
		refBracket: regexp.MustCompile(regexp.QuoteMeta(s.RefOpen) + `(.*?)` + regexp.QuoteMeta(s.RefClose)),
		refPrefix:  regexp.MustCompile(regexp.QuoteMeta(s.RefPrefix) + `(\S+)`),
		marker:     regexp.MustCompile(regexp.QuoteMeta(s.MarkerSigil) + `([A-Za-z0-9]+)`),
		completion: regexp.MustCompile(regexp.QuoteMeta(s.DoneMark) + `\s*(\S+)`),
	}
}

// Syntax returns the syntax the codec was built with.
func (c *Codec) Syntax() Syntax {
	return c.syntax
}

// Anomaly describes a line that looked like a task but could not be
// interpreted as one. The line is kept verbatim; an anomaly is a
// diagnostic, never a load failure.
type Anomaly struct {
	Line   int
	Reason string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("line %d: %s", a.Line+1, a.Reason)
}

// Parse scans data line by line. Lines matching the task grammar become
// task lines; headings update the current section; everything else,
// including malformed task lines, is preserved verbatim. Parse never
// fails.
func (c *Codec) Parse(data []byte) (*Document, []Anomaly) {
	doc := &Document{}
	if len(data) == 0 {
		return doc, nil
	}

	content := string(data)
	doc.TrailingNewline = strings.HasSuffix(content, "\n")
	if doc.TrailingNewline {
		content = content[:len(content)-1]
	}

	var anomalies []Anomaly
	section := ""
	for i, raw := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, c.syntax.HeadingPrefix) {
			section = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			doc.Lines = append(doc.Lines, Line{Raw: raw})
			continue
		}

		task, err := c.parseTask(raw, section)
		if err != nil {
			anomalies = append(anomalies, Anomaly{Line: i, Reason: err.Error()})
			doc.Lines = append(doc.Lines, Line{Raw: raw})
			continue
		}
		doc.Lines = append(doc.Lines, Line{Raw: raw, Task: task})
	}
	return doc, anomalies
}

// parseTask interprets one line. It returns (nil, nil) for lines that do
// not start with a checkbox, and an error for lines that do but carry a
// token the grammar cannot digest.
func (c *Codec) parseTask(raw, section string) (*Task, error) {
	m := boxRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, nil
	}

	task := &Task{
		Indent:  m[1],
		Done:    m[2] == "x" || m[2] == "X",
		Section: section,
	}
	rest := m[3]

	// Track the matched token texts so the remainder becomes the title.
	var consumed []string

	if cm := c.completion.FindStringSubmatch(rest); cm != nil {
		if !task.Done {
			return nil, fmt.Errorf("completion marker on an open task")
		}
		d, err := parseTokenDate(cm[1])
		if err != nil {
			return nil, fmt.Errorf("bad completion date %q", cm[1])
		}
		task.Completion = &d
		consumed = append(consumed, cm[0])
	} else if strings.Contains(rest, c.syntax.DoneMark) {
		return nil, fmt.Errorf("completion marker without a date")
	}

	if dm := c.due.FindStringSubmatch(rest); dm != nil {
		d, err := parseTokenDate(dm[1])
		if err != nil {
			return nil, fmt.Errorf("bad due date %q", dm[1])
		}
		task.Due = &d
		consumed = append(consumed, dm[0])
	}

	if pm := c.project.FindStringSubmatch(rest); pm != nil {
		task.Project = pm[1]
		consumed = append(consumed, pm[0])
	}
	if lm := c.place.FindStringSubmatch(rest); lm != nil {
		task.Place = lm[1]
		consumed = append(consumed, lm[0])
	}

	if rm := c.refBracket.FindStringSubmatch(rest); rm != nil {
		task.Reference = strings.TrimSpace(rm[1])
		consumed = append(consumed, rm[0])
	} else if rm := c.refPrefix.FindStringSubmatch(rest); rm != nil {
		task.Reference = rm[1]
		consumed = append(consumed, rm[0])
	}

	if mm := c.marker.FindStringSubmatch(rest); mm != nil {
		task.Marker = mm[1]
		consumed = append(consumed, mm[0])
	}

	title := rest
	for _, tok := range consumed {
		title = strings.Replace(title, tok, " ", 1)
	}
	task.Title = strings.Join(strings.Fields(title), " ")

	return task, nil
}

func parseTokenDate(s string) (Date, error) {
	if !dateShapeRe.MatchString(s) {
		return Date{}, fmt.Errorf("not an ISO date")
	}
	return ParseDate(s)
}

// FormatTask renders a task in canonical form: checkbox, title, project,
// place, due date, reference, completion marker, line id. Token order on
// input is free; output is always this order.
func (c *Codec) FormatTask(t *Task) string {
	var b strings.Builder
	b.WriteString(t.Indent)
	if t.Done {
		b.WriteString(c.syntax.DoneBox)
	} else {
		b.WriteString(c.syntax.OpenBox)
	}
	if t.Title != "" {
		b.WriteByte(' ')
		b.WriteString(t.Title)
	}
	if t.Project != "" {
		b.WriteByte(' ')
		b.WriteString(c.syntax.ProjectSigil)
		b.WriteString(t.Project)
	}
	if t.Place != "" {
		b.WriteByte(' ')
		b.WriteString(c.syntax.PlaceSigil)
		b.WriteString(t.Place)
	}
	if t.Due != nil {
		b.WriteByte(' ')
		b.WriteString(c.syntax.DuePrefix)
		b.WriteString(t.Due.String())
	}
	if t.Reference != "" {
		b.WriteByte(' ')
		b.WriteString(c.syntax.RefOpen)
		b.WriteString(t.Reference)
		b.WriteString(c.syntax.RefClose)
	}
	if t.Done && t.Completion != nil {
		b.WriteByte(' ')
		b.WriteString(c.syntax.DoneMark)
		b.WriteByte(' ')
		b.WriteString(t.Completion.String())
	}
	if t.Marker != "" {
		b.WriteByte(' ')
		b.WriteString(c.syntax.MarkerSigil)
		b.WriteString(t.Marker)
	}
	return b.String()
}
