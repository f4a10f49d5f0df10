package issue

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is the rendered form of an issue or fix.
type Message struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func newMessage(loc Location, text string) Message {
	line := 0
	if loc.Line != NoLine {
		line = loc.Line + 1
	}
	return Message{File: loc.File, Line: line, Start: loc.Start, End: loc.End, Text: text}
}

// Message renders the issue. Line is one-based, 0 when the issue concerns the whole file.
func (i Issue) Message() Message {
	return newMessage(i.Location, i.text())
}

func (i Issue) text() string {
	switch i.Kind {
	case CannotReadDirectory:
		return fmt.Sprintf("cannot read directory: %s", i.Detail)
	case CannotReadFile:
		return fmt.Sprintf("cannot read file: %s", i.Detail)
	case InvalidConfigurationFile:
		return fmt.Sprintf("invalid configuration file: %s", i.Detail)
	case NoTitleSection:
		return "document has no title section"
	case UnclosedFence:
		return "unclosed fenced code block"
	case LinkWithoutTarget:
		return "link without target"
	case PathEscapesRoot:
		return fmt.Sprintf("link %q points outside the tikibase", i.Target)
	case LinkToSameDocument:
		return "link to the same document"
	case LinkToNonExistingAnchorInCurrentDocument:
		return fmt.Sprintf("link to non-existing anchor %q in current document", i.Target)
	case LinkToNonExistingAnchorInExistingDocument:
		return fmt.Sprintf("link to non-existing anchor in existing document %q", i.Target)
	case LinkToNonExistingFile:
		return fmt.Sprintf("link to non-existing file %q", i.Target)
	case LinkToNonExistingDir:
		return fmt.Sprintf("link to non-existing directory %q", i.Target)
	case BrokenImage:
		return fmt.Sprintf("image link to non-existing file %q", i.Target)
	case DocumentWithoutLinks:
		return "document has no links"
	case OrphanedResource:
		return "file is not referenced anywhere"
	case MissingLink:
		return fmt.Sprintf("missing link to %s (%q)", i.Target, i.Title)
	case ObsoleteOccurrencesSection:
		return "obsolete occurrences section"
	case ObsoleteOccurrence:
		return fmt.Sprintf("obsolete occurrence of %s", i.Target)
	case MixCapSection:
		if i.Common != "" {
			return fmt.Sprintf("section title %q has inconsistent capitalization, use %q", i.Variant, i.Common)
		}
		return fmt.Sprintf("section title %q has inconsistent capitalization: %s", i.Variant, quoteAll(i.Variants))
	case InconsistentHeadingLevel:
		if i.CommonLevel != 0 {
			return fmt.Sprintf("section %q has level %d, used elsewhere with level %d", i.Target, i.Level, i.CommonLevel)
		}
		return fmt.Sprintf("section %q has level %d, used elsewhere with levels %s", i.Target, i.Level, joinInts(i.Levels))
	case UnorderedSections:
		return fmt.Sprintf("section %q is out of order", i.Target)
	case UnknownSection:
		return fmt.Sprintf("unknown section %q, allowed sections: %s", i.Target, quoteAll(i.Allowed))
	case DuplicateSection:
		return fmt.Sprintf("duplicate section %q", i.Target)
	case EmptySection:
		return fmt.Sprintf("section %q has no content", i.Target)
	case EmptySectionTitle:
		return "section has no title"
	case MissingSource:
		return fmt.Sprintf("source [%s] is not defined", i.Target)
	case MissingFootnote:
		return fmt.Sprintf("footnote [^%s] is not defined", i.Target)
	case UnusedFootnote:
		return fmt.Sprintf("footnote [^%s] is never referenced", i.Target)
	default:
		return fmt.Sprintf("unknown issue %d", int(i.Kind))
	}
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for n, v := range values {
		quoted[n] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for n, v := range values {
		parts[n] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
