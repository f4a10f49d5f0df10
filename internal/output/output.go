// Package output renders issues and fixes for the terminal or for machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/starford/tikibase/internal/issue"
)

// Format selects a renderer.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{Text, JSON}

// ParseFormat validates s. The empty string selects Text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("output: unknown format %q (want text or json)", s)
	}
}

// Issues converts issues to messages.
func Issues(issues []issue.Issue) []issue.Message {
	out := make([]issue.Message, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Message())
	}
	return out
}

// Fixes converts fixes to messages.
func Fixes(fixes []issue.Fix) []issue.Message {
	out := make([]issue.Message, 0, len(fixes))
	for _, f := range fixes {
		out = append(out, f.Message())
	}
	return out
}

// Messages writes msgs in format. Text prints one "file:line  text" row per
// message and omits ":line" for file-level messages; JSON prints an array.
func Messages(w io.Writer, format Format, msgs []issue.Message) error {
	if format == JSON {
		return Value(w, msgs)
	}
	for _, m := range msgs {
		loc := m.File
		if m.Line > 0 {
			loc = fmt.Sprintf("%s:%d", m.File, m.Line)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", loc, m.Text); err != nil {
			return fmt.Errorf("output: write: %w", err)
		}
	}
	return nil
}

// Value writes v as indented JSON.
func Value(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode: %w", err)
	}
	return nil
}
