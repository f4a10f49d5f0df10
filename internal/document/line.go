package document

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

var (
	mdLinkRe      = regexp.MustCompile(`(!?)\[((?:\\.|[^\[\]\\]|\[[^\[\]]*\])*)\]\(([^)\s]*)(?:\s+"[^"]*")?\)`)
	htmlLinkRe    = regexp.MustCompile(`<a\s[^>]*?href="([^"]*)"[^>]*>`)
	htmlImgRe     = regexp.MustCompile(`<img\s[^>]*?src="([^"]*)"[^>]*>`)
	htmlAnchorRe  = regexp.MustCompile(`<a\s[^>]*?(?:id|name)="([^"]+)"[^>]*>`)
	codeSpanRe    = regexp.MustCompile("`[^`]*`")
	citationRe    = regexp.MustCompile(`\[(\d+)\]`)
	footnoteRe    = regexp.MustCompile(`\[\^([^\]\s]+)\]`)
	footnoteDefRe = regexp.MustCompile(`^\[\^([^\]\s]+)\]:`)
	sourceDefRe   = regexp.MustCompile(`^\s*(\d+)\.\s`)
)

// ReferenceKind distinguishes links from embedded images.
type ReferenceKind int

const (
	Link ReferenceKind = iota
	Image
)

// Reference is a link or image found in a line.
// Start and End are byte offsets within the line text.
type Reference struct {
	Kind        ReferenceKind
	Destination string
	Start       int
	End         int
}

// Marker is a citation or footnote marker found in a line.
type Marker struct {
	Identifier string
	Start      int
	End        int
}

// Line is one line of a document together with its absolute line number.
type Line struct {
	Number int
	Text   string
	code   bool // inside a fenced code block
}

// NewLine returns a line that is not part of a fenced code block.
func NewLine(number int, text string) Line {
	return Line{Number: number, Text: text}
}

// InCodeBlock reports whether the line belongs to a fenced code block,
// including the fence lines themselves.
func (l Line) InCodeBlock() bool {
	return l.code
}

// IsBlank reports whether the line contains only whitespace.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// References returns the links and images of the line in order of appearance.
func (l Line) References() []Reference {
	if l.code {
		return nil
	}
	code := codeSpans(l.Text)
	var out []Reference
	for _, m := range mdLinkRe.FindAllStringSubmatchIndex(l.Text, -1) {
		if startsInCode(code, m[0]) {
			continue
		}
		kind := Link
		if m[3] > m[2] {
			kind = Image
		}
		out = append(out, Reference{
			Kind:        kind,
			Destination: l.Text[m[6]:m[7]],
			Start:       m[0],
			End:         m[1],
		})
	}
	out = appendHTML(out, htmlLinkRe, Link, l.Text, code)
	out = appendHTML(out, htmlImgRe, Image, l.Text, code)
	sortReferences(out)
	return out
}

// Citations returns numeric citation markers such as [1].
// Bracketed numbers that open a Markdown link or a reference definition are skipped.
func (l Line) Citations() []Marker {
	if l.code {
		return nil
	}
	code := codeSpans(l.Text)
	links := mdLinkRe.FindAllStringIndex(l.Text, -1)
	var out []Marker
	for _, m := range citationRe.FindAllStringSubmatchIndex(l.Text, -1) {
		if overlaps(code, m[0], m[1]) || overlaps(links, m[0], m[1]) {
			continue
		}
		if m[1] < len(l.Text) && (l.Text[m[1]] == '(' || l.Text[m[1]] == ':') {
			continue
		}
		out = append(out, Marker{Identifier: l.Text[m[2]:m[3]], Start: m[0], End: m[1]})
	}
	return out
}

// Footnotes returns footnote references such as [^note].
// The label of a footnote definition line is not a reference.
func (l Line) Footnotes() []Marker {
	if l.code {
		return nil
	}
	code := codeSpans(l.Text)
	skip := 0
	if def := footnoteDefRe.FindStringIndex(l.Text); def != nil {
		skip = def[1]
	}
	var out []Marker
	for _, m := range footnoteRe.FindAllStringSubmatchIndex(l.Text, -1) {
		if m[0] < skip || overlaps(code, m[0], m[1]) {
			continue
		}
		out = append(out, Marker{Identifier: l.Text[m[2]:m[3]], Start: m[0], End: m[1]})
	}
	return out
}

// FootnoteDefinition returns the footnote defined by this line, if any.
func (l Line) FootnoteDefinition() (Marker, bool) {
	if l.code {
		return Marker{}, false
	}
	m := footnoteDefRe.FindStringSubmatchIndex(l.Text)
	if m == nil {
		return Marker{}, false
	}
	return Marker{Identifier: l.Text[m[2]:m[3]], Start: m[0], End: m[1]}, true
}

// SourceDefinition returns the number of a numbered source line such as "1. https://...".
func (l Line) SourceDefinition() (string, bool) {
	if l.code {
		return "", false
	}
	m := sourceDefRe.FindStringSubmatch(l.Text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HTMLAnchors returns the identifiers of <a id="..."> and <a name="..."> tags as anchors.
func (l Line) HTMLAnchors() []string {
	if l.code {
		return nil
	}
	var out []string
	for _, m := range htmlAnchorRe.FindAllStringSubmatch(l.Text, -1) {
		out = append(out, "#"+m[1])
	}
	return out
}

func appendHTML(out []Reference, re *regexp.Regexp, kind ReferenceKind, text string, code [][]int) []Reference {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if startsInCode(code, m[0]) {
			continue
		}
		out = append(out, Reference{
			Kind:        kind,
			Destination: text[m[2]:m[3]],
			Start:       m[0],
			End:         m[1],
		})
	}
	return out
}

func codeSpans(text string) [][]int {
	if !strings.Contains(text, "`") {
		return nil
	}
	return codeSpanRe.FindAllStringIndex(text, -1)
}

// startsInCode reports whether offset lies inside one of the code spans.
// Links whose text merely contains code start outside of it.
func startsInCode(spans [][]int, offset int) bool {
	for _, r := range spans {
		if r[0] <= offset && offset < r[1] {
			return true
		}
	}
	return false
}

func overlaps(ranges [][]int, start, end int) bool {
	for _, r := range ranges {
		if start < r[1] && r[0] < end {
			return true
		}
	}
	return false
}

func sortReferences(refs []Reference) {
	slices.SortStableFunc(refs, func(a, b Reference) int {
		return cmp.Compare(a.Start, b.Start)
	})
}
