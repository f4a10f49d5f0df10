package document

import (
	"regexp"
	"strings"
	"unicode"
)

var headingRe = regexp.MustCompile(`^(#{1,6})(?:[ \t]+|$)`)

// Section is a heading line plus the body lines up to the next heading.
//
// Level and title offset are derived once by NewSection. Every change to a
// section goes through NewSection again so the derived values never drift
// from the title line.
type Section struct {
	lineNumber     int
	titleLine      string
	body           []Line
	level          int
	titleTextStart int
}

// NewSection builds a section starting at lineNumber.
// Body lines are renumbered to follow the title line.
func NewSection(lineNumber int, titleLine string, body []Line) Section {
	s := Section{
		lineNumber: lineNumber,
		titleLine:  titleLine,
		body:       make([]Line, len(body)),
	}
	for i, l := range body {
		l.Number = lineNumber + 1 + i
		s.body[i] = l
	}
	if m := headingRe.FindStringSubmatchIndex(titleLine); m != nil {
		s.level = m[3] - m[2]
		s.titleTextStart = m[1]
	}
	return s
}

// IsHeading reports whether text is an ATX heading line.
func IsHeading(text string) bool {
	return headingRe.MatchString(text)
}

// LineNumber is the zero-based line of the heading.
func (s Section) LineNumber() int { return s.lineNumber }

// TitleLine is the raw heading line.
func (s Section) TitleLine() string { return s.titleLine }

// Level is the number of leading hashes.
func (s Section) Level() int { return s.level }

// TitleTextStart is the byte offset where the title text begins.
func (s Section) TitleTextStart() int { return s.titleTextStart }

// Body returns a copy of the body lines.
func (s Section) Body() []Line {
	out := make([]Line, len(s.body))
	copy(out, s.body)
	return out
}

// HumanTitle is the title text without hashes and surrounding whitespace.
func (s Section) HumanTitle() string {
	return strings.TrimSpace(s.titleLine[s.titleTextStart:])
}

// Anchor is the in-document link target of the section, e.g. "#known-issues".
func (s Section) Anchor() string {
	return Anchor(s.HumanTitle())
}

// Lines returns the title line followed by the body lines.
func (s Section) Lines() []Line {
	out := make([]Line, 0, len(s.body)+1)
	out = append(out, Line{Number: s.lineNumber, Text: s.titleLine})
	return append(out, s.body...)
}

// LineCount is the number of lines including the title line.
func (s Section) LineCount() int {
	return len(s.body) + 1
}

// LastLine is the zero-based number of the last line of the section.
func (s Section) LastLine() int {
	return s.lineNumber + len(s.body)
}

// IsEmpty reports whether the body contains no visible content.
func (s Section) IsEmpty() bool {
	for _, l := range s.body {
		if !l.IsBlank() {
			return false
		}
	}
	return true
}

// EndsWithBlankLine reports whether the last line of the section is blank.
func (s Section) EndsWithBlankLine() bool {
	if len(s.body) == 0 {
		return false
	}
	return s.body[len(s.body)-1].IsBlank()
}

// Text renders the section, each line terminated by a newline.
func (s Section) Text() string {
	var b strings.Builder
	b.WriteString(s.titleLine)
	b.WriteByte('\n')
	for _, l := range s.body {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// WithLineNumber returns the section moved to a new starting line.
func (s Section) WithLineNumber(lineNumber int) Section {
	return NewSection(lineNumber, s.titleLine, s.body)
}

// WithTitle returns the section with its title text replaced, keeping the hashes.
func (s Section) WithTitle(title string) Section {
	return NewSection(s.lineNumber, s.titleLine[:s.titleTextStart]+title, s.body)
}

// WithLevel returns the section with the given number of leading hashes.
func (s Section) WithLevel(level int) Section {
	rest := strings.TrimLeft(s.titleLine, "#")
	return NewSection(s.lineNumber, strings.Repeat("#", level)+rest, s.body)
}

// WithBody returns the section with new body lines.
func (s Section) WithBody(body []Line) Section {
	return NewSection(s.lineNumber, s.titleLine, body)
}

// Anchor converts a human title into its kebab-cased link anchor.
func Anchor(title string) string {
	var b strings.Builder
	b.WriteByte('#')
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			if space {
				b.WriteByte('-')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
