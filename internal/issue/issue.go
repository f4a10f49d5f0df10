// Package issue defines the findings reported by checks and the repairs applied by fixes.
package issue

import (
	"cmp"
	"slices"
)

// NoLine marks a location that refers to a whole file.
const NoLine = -1

// Location points at a range of bytes in one line of a file.
// Line is zero-based; Start and End are byte offsets within the line.
type Location struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// FileLocation points at a file as a whole.
func FileLocation(file string) Location {
	return Location{File: file, Line: NoLine}
}

// Compare orders locations by file, line, start, and end.
func (l Location) Compare(o Location) int {
	return cmp.Or(
		cmp.Compare(l.File, o.File),
		cmp.Compare(l.Line, o.Line),
		cmp.Compare(l.Start, o.Start),
		cmp.Compare(l.End, o.End),
	)
}

// Kind is the tag of an Issue.
type Kind int

const (
	CannotReadDirectory Kind = iota + 1
	CannotReadFile
	InvalidConfigurationFile
	NoTitleSection
	UnclosedFence

	LinkWithoutTarget
	PathEscapesRoot
	LinkToSameDocument
	LinkToNonExistingAnchorInCurrentDocument
	LinkToNonExistingAnchorInExistingDocument
	LinkToNonExistingFile
	LinkToNonExistingDir
	BrokenImage
	DocumentWithoutLinks
	OrphanedResource

	MissingLink
	ObsoleteOccurrencesSection
	ObsoleteOccurrence

	MixCapSection
	InconsistentHeadingLevel

	UnorderedSections
	UnknownSection
	DuplicateSection
	EmptySection
	EmptySectionTitle

	MissingSource
	MissingFootnote
	UnusedFootnote
)

var kindNames = map[Kind]string{
	CannotReadDirectory:                       "CannotReadDirectory",
	CannotReadFile:                            "CannotReadFile",
	InvalidConfigurationFile:                  "InvalidConfigurationFile",
	NoTitleSection:                            "NoTitleSection",
	UnclosedFence:                             "UnclosedFence",
	LinkWithoutTarget:                         "LinkWithoutTarget",
	PathEscapesRoot:                           "PathEscapesRoot",
	LinkToSameDocument:                        "LinkToSameDocument",
	LinkToNonExistingAnchorInCurrentDocument:  "LinkToNonExistingAnchorInCurrentDocument",
	LinkToNonExistingAnchorInExistingDocument: "LinkToNonExistingAnchorInExistingDocument",
	LinkToNonExistingFile:                     "LinkToNonExistingFile",
	LinkToNonExistingDir:                      "LinkToNonExistingDir",
	BrokenImage:                               "BrokenImage",
	DocumentWithoutLinks:                      "DocumentWithoutLinks",
	OrphanedResource:                          "OrphanedResource",
	MissingLink:                               "MissingLink",
	ObsoleteOccurrencesSection:                "ObsoleteOccurrencesSection",
	ObsoleteOccurrence:                        "ObsoleteOccurrence",
	MixCapSection:                             "MixCapSection",
	InconsistentHeadingLevel:                  "InconsistentHeadingLevel",
	UnorderedSections:                         "UnorderedSections",
	UnknownSection:                            "UnknownSection",
	DuplicateSection:                          "DuplicateSection",
	EmptySection:                              "EmptySection",
	EmptySectionTitle:                         "EmptySectionTitle",
	MissingSource:                             "MissingSource",
	MissingFootnote:                           "MissingFootnote",
	UnusedFootnote:                            "UnusedFootnote",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Kinds returns every issue kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := CannotReadDirectory; k <= UnusedFootnote; k++ {
		out = append(out, k)
	}
	return out
}

// Issue is one finding. Kind selects which payload fields are meaningful:
//
//   - Target: link destination, anchor, resolved path, section title, or identifier
//   - Title: human title of the document named by Target (MissingLink)
//   - Target of ObsoleteOccurrence: the listed document that needs no entry any more
//   - Variants, Variant, Common: MixCapSection; Common is empty when no variant dominates
//   - Levels, Level, CommonLevel: InconsistentHeadingLevel; CommonLevel is 0 when no level dominates
//   - Allowed: configured section titles (UnknownSection)
//   - Detail: underlying error text of load errors
type Issue struct {
	Kind        Kind     `json:"kind"`
	Location    Location `json:"location"`
	Target      string   `json:"target,omitempty"`
	Title       string   `json:"title,omitempty"`
	Variants    []string `json:"variants,omitempty"`
	Variant     string   `json:"variant,omitempty"`
	Common      string   `json:"common,omitempty"`
	Levels      []int    `json:"levels,omitempty"`
	Level       int      `json:"level,omitempty"`
	CommonLevel int      `json:"common_level,omitempty"`
	Allowed     []string `json:"allowed,omitempty"`
	Detail      string   `json:"detail,omitempty"`
}

// Compare is a total order over issues: location first, then kind, then payload.
func Compare(a, b Issue) int {
	return cmp.Or(
		a.Location.Compare(b.Location),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Target, b.Target),
		cmp.Compare(a.Title, b.Title),
		slices.Compare(a.Variants, b.Variants),
		cmp.Compare(a.Variant, b.Variant),
		cmp.Compare(a.Common, b.Common),
		slices.Compare(a.Levels, b.Levels),
		cmp.Compare(a.Level, b.Level),
		cmp.Compare(a.CommonLevel, b.CommonLevel),
		slices.Compare(a.Allowed, b.Allowed),
		cmp.Compare(a.Detail, b.Detail),
	)
}

// Equal reports whether two issues carry the same tag, location, and payload.
func Equal(a, b Issue) bool {
	return Compare(a, b) == 0
}

// Sort orders issues deterministically.
func Sort(issues []Issue) {
	slices.SortStableFunc(issues, Compare)
}

// HasCommon reports whether an outlier issue names a dominating variant.
func (i Issue) HasCommon() bool {
	switch i.Kind {
	case MixCapSection:
		return i.Common != ""
	case InconsistentHeadingLevel:
		return i.CommonLevel != 0
	default:
		return false
	}
}
