package todo

// Syntax holds the token constants of the todo line grammar. The due and
// reference spellings and the completion symbol vary between files in the
// wild, so they are configuration rather than hard literals.
type Syntax struct {
	// Checkbox markers. Matching is tolerant of spacing and an upper-case
	// X; output always uses these exact forms.
	OpenBox string
	DoneBox string

	// Tag sigils.
	ProjectSigil string
	PlaceSigil   string

	// Due date token: DuePrefix immediately followed by an ISO date.
	DuePrefix string

	// Reference token. RefOpen/RefClose bracket form is canonical on
	// output; the RefPrefix form is also accepted on input.
	RefOpen   string
	RefClose  string
	RefPrefix string

	// Completion marker: DoneMark, a space, then an ISO date. Only valid
	// on done lines.
	DoneMark string

	// Stable line id: MarkerSigil followed by an alphanumeric token.
	MarkerSigil string

	// HeadingPrefix introduces a section heading; the heading text becomes
	// the Section of the tasks that follow it.
	HeadingPrefix string

	// Fence marks where newly added tasks are inserted (above it).
	Fence string
}

// DefaultSyntax returns the grammar used by existing todo files.
func DefaultSyntax() Syntax {
	return Syntax{
		OpenBox:       "- [ ]",
		DoneBox:       "- [x]",
		ProjectSigil:  "+",
		PlaceSigil:    "@",
		DuePrefix:     "due:",
		RefOpen:       "[[",
		RefClose:      "]]",
		RefPrefix:     "ref:",
		DoneMark:      "✅",
		MarkerSigil:   "^",
		HeadingPrefix: "###",
		Fence:         "---",
	}
}
