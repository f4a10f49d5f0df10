package issue

import "fmt"

// FixKind is the tag of a Fix.
type FixKind int

const (
	AddedOccurrence FixKind = iota + 1
	NormalizedSectionCapitalization
	NormalizedSectionLevel
	RemovedEmptySection
	RemovedObsoleteOccurrences
	SortedSections
	RemovedObsoleteOccurrence
)

func (k FixKind) String() string {
	switch k {
	case AddedOccurrence:
		return "AddedOccurrence"
	case NormalizedSectionCapitalization:
		return "NormalizedSectionCapitalization"
	case NormalizedSectionLevel:
		return "NormalizedSectionLevel"
	case RemovedEmptySection:
		return "RemovedEmptySection"
	case RemovedObsoleteOccurrences:
		return "RemovedObsoleteOccurrences"
	case SortedSections:
		return "SortedSections"
	case RemovedObsoleteOccurrence:
		return "RemovedObsoleteOccurrence"
	default:
		return "Unknown"
	}
}

// Fix describes one repair applied to a document.
type Fix struct {
	Kind     FixKind  `json:"kind"`
	Location Location `json:"location"`
	Target   string   `json:"target,omitempty"`
	Title    string   `json:"title,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// Message renders the fix.
func (f Fix) Message() Message {
	var text string
	switch f.Kind {
	case AddedOccurrence:
		text = fmt.Sprintf("added occurrence of %s (%q)", f.Target, f.Title)
	case NormalizedSectionCapitalization:
		text = fmt.Sprintf("normalized capitalization of section %q to %q", f.From, f.To)
	case NormalizedSectionLevel:
		text = fmt.Sprintf("normalized level of section %q from %s to %s", f.Target, f.From, f.To)
	case RemovedEmptySection:
		text = fmt.Sprintf("removed empty section %q", f.Target)
	case RemovedObsoleteOccurrences:
		text = "removed obsolete occurrences section"
	case SortedSections:
		text = "sorted sections"
	case RemovedObsoleteOccurrence:
		text = fmt.Sprintf("removed obsolete occurrence of %s", f.Target)
	default:
		text = fmt.Sprintf("unknown fix %d", int(f.Kind))
	}
	return newMessage(f.Location, text)
}
