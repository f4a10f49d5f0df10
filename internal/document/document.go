// Package document parses Markdown files into sections and lines and renders them back.
package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// OccurrencesTitle is the human title of the auto-maintained back-link section.
const OccurrencesTitle = "occurrences"

var (
	// ErrNoTitleSection is returned when a file does not start with a level-1 heading.
	ErrNoTitleSection = errors.New("document has no title section")
	// ErrUnclosedFence is returned when a fenced code block runs until the end of the file.
	ErrUnclosedFence = errors.New("unclosed fenced code block")
)

var fenceRe = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")

// ParseError describes why a file could not be parsed.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line+1, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is a parsed Markdown file.
type Document struct {
	// Path is relative to the tikibase root, slash separated.
	Path string

	title       Section
	content     []Section
	occurrences *Section
}

// Parse splits text into the title section, the content sections, and a
// previously generated occurrences section, which is kept apart from the content.
func Parse(text, path string) (*Document, error) {
	lines, err := scanLines(text)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || !IsHeading(lines[0].Text) {
		return nil, &ParseError{Line: 0, Err: ErrNoTitleSection}
	}

	var sections []Section
	start := 0
	for i := 1; i <= len(lines); i++ {
		if i < len(lines) && (lines[i].code || !IsHeading(lines[i].Text)) {
			continue
		}
		sections = append(sections, NewSection(start, lines[start].Text, lines[start+1:i]))
		start = i
	}
	if sections[0].Level() != 1 {
		return nil, &ParseError{Line: 0, Err: ErrNoTitleSection}
	}

	doc := &Document{Path: path, title: sections[0]}
	for _, s := range sections[1:] {
		if doc.occurrences == nil && s.HumanTitle() == OccurrencesTitle {
			occ := s
			doc.occurrences = &occ
			continue
		}
		doc.content = append(doc.content, s)
	}
	return doc, nil
}

// scanLines splits text into lines and marks fenced code blocks.
func scanLines(text string) ([]Line, error) {
	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]Line, len(raw))
	fence := ""
	fenceStart := 0
	for i, t := range raw {
		lines[i] = Line{Number: i, Text: t}
		m := fenceRe.FindStringSubmatch(t)
		switch {
		case fence == "" && m != nil:
			fence = m[1]
			fenceStart = i
			lines[i].code = true
		case fence != "":
			lines[i].code = true
			if m != nil && m[1][0] == fence[0] && len(m[1]) >= len(fence) &&
				strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), m[1][:1])) == "" {
				fence = ""
			}
		}
	}
	if fence != "" {
		return nil, &ParseError{Line: fenceStart, Err: ErrUnclosedFence}
	}
	return lines, nil
}

// TitleSection is the mandatory level-1 heading section.
func (d *Document) TitleSection() Section {
	return d.title
}

// ContentSections returns a copy of the sections after the title section.
func (d *Document) ContentSections() []Section {
	out := make([]Section, len(d.content))
	copy(out, d.content)
	return out
}

// Sections returns the title section followed by the content sections.
func (d *Document) Sections() []Section {
	out := make([]Section, 0, len(d.content)+1)
	out = append(out, d.title)
	return append(out, d.content...)
}

// OccurrencesSection returns the occurrences section found while parsing, if it is still retained.
func (d *Document) OccurrencesSection() (Section, bool) {
	if d.occurrences == nil {
		return Section{}, false
	}
	return *d.occurrences, true
}

// HumanTitle is the human title of the title section.
func (d *Document) HumanTitle() string {
	return d.title.HumanTitle()
}

// Anchors returns every anchor that links into this document.
func (d *Document) Anchors() map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range d.allSections() {
		out[s.Anchor()] = struct{}{}
		for _, l := range s.body {
			for _, a := range l.HTMLAnchors() {
				out[a] = struct{}{}
			}
		}
	}
	return out
}

// LineCount is the number of lines Text renders.
func (d *Document) LineCount() int {
	n := 0
	for _, s := range d.allSections() {
		n += s.LineCount()
	}
	return n
}

// EndsWithBlankLine reports whether the last rendered line is blank.
func (d *Document) EndsWithBlankLine() bool {
	all := d.allSections()
	return all[len(all)-1].EndsWithBlankLine()
}

// Text renders the document: title section, content sections, then the occurrences section.
func (d *Document) Text() string {
	var b strings.Builder
	for _, s := range d.allSections() {
		b.WriteString(s.Text())
	}
	return b.String()
}

// SetContentSections replaces the content sections and renumbers all lines.
func (d *Document) SetContentSections(sections []Section) {
	d.content = make([]Section, len(sections))
	copy(d.content, sections)
	d.renumber()
}

// SetOccurrencesSection stores the occurrences section rendered after the content.
func (d *Document) SetOccurrencesSection(s Section) {
	d.occurrences = &s
	d.renumber()
}

// RemoveOccurrencesSection drops the occurrences section so the next save removes it from disk.
func (d *Document) RemoveOccurrencesSection() {
	d.occurrences = nil
	d.renumber()
}

// AppendBlankLine adds an empty line at the end of the last content section.
func (d *Document) AppendBlankLine() {
	if len(d.content) == 0 {
		body := append(d.title.Body(), NewLine(0, ""))
		d.title = d.title.WithBody(body)
		d.renumber()
		return
	}
	last := len(d.content) - 1
	body := append(d.content[last].Body(), NewLine(0, ""))
	d.content[last] = d.content[last].WithBody(body)
	d.renumber()
}

func (d *Document) allSections() []Section {
	all := d.Sections()
	if d.occurrences != nil {
		all = append(all, *d.occurrences)
	}
	return all
}

// renumber assigns consecutive line numbers in render order.
func (d *Document) renumber() {
	n := d.title.LineCount()
	for i, s := range d.content {
		d.content[i] = s.WithLineNumber(n)
		n += s.LineCount()
	}
	if d.occurrences != nil {
		occ := d.occurrences.WithLineNumber(n)
		d.occurrences = &occ
	}
}
