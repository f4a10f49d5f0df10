package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tikibase/internal/issue"
)

func sample() []issue.Issue {
	return []issue.Issue{
		{Kind: issue.LinkToNonExistingFile, Location: issue.Location{File: "1.md", Line: 2, Start: 4, End: 13}, Target: "x.md"},
		{Kind: issue.OrphanedResource, Location: issue.FileLocation("pic.png")},
	}
}

func TestMessages_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Messages(&buf, Text, Issues(sample())))
	assert.Equal(t,
		"1.md:3  link to non-existing file \"x.md\"\npic.png  file is not referenced anywhere\n",
		buf.String())
}

func TestMessages_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Messages(&buf, JSON, Issues(sample())))

	var got []issue.Message
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, issue.Message{File: "1.md", Line: 3, Start: 4, End: 13, Text: `link to non-existing file "x.md"`}, got[0])
	assert.Equal(t, 0, got[1].Line)
}

func TestMessages_EmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Messages(&buf, JSON, Issues(nil)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFixes(t *testing.T) {
	msgs := Fixes([]issue.Fix{{Kind: issue.RemovedEmptySection, Location: issue.Location{File: "a.md", Line: 4}, Target: "notes"}})
	require.Len(t, msgs, 1)
	assert.Equal(t, "a.md", msgs[0].File)
	assert.Equal(t, 5, msgs[0].Line)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]struct {
		give    string
		want    Format
		wantErr bool
	}{
		"empty":   {give: "", want: Text},
		"text":    {give: "text", want: Text},
		"json":    {give: " JSON ", want: JSON},
		"unknown": {give: "xml", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseFormat(tc.give)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
