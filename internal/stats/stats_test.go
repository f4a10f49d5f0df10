package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tikibase/internal/check"
	"github.com/starford/tikibase/internal/testutil"
	"github.com/starford/tikibase/internal/tree"
)

func compute(t *testing.T, files map[string]string) Stats {
	t.Helper()
	_, store := testutil.TestBase(t, files)
	root, issues := tree.Load(store)
	require.Empty(t, issues)
	return Compute(root, check.Links(root).Outgoing)
}

func TestCompute(t *testing.T) {
	s := compute(t, map[string]string{
		"1.md":    "# One\n[two](2.md) [web](https://example.com)\n## notes\nx\n",
		"2.md":    "# Two\n![pic](pic.png)\n## notes\nx\n## links\n",
		"3.md":    "# Three\nalone\n",
		"pic.png": "png",
	})

	assert.Equal(t, 3, s.Documents)
	assert.Equal(t, 1, s.Resources)
	assert.Equal(t, 3, s.Sections)
	assert.Equal(t, 1, s.Links)
	assert.Equal(t, 1, s.ExternalLinks)
	assert.Equal(t, 1, s.Images)
	assert.Equal(t, 1, s.DocumentEdges)
	assert.Equal(t, []string{"3.md"}, s.Unlinked)
	assert.Equal(t, []TitleCount{{Title: "notes", Count: 2}, {Title: "links", Count: 1}}, s.SectionTitles)
}

func TestCompute_Empty(t *testing.T) {
	s := compute(t, map[string]string{})
	assert.Zero(t, s.Documents)
	assert.NotNil(t, s.Unlinked)
	assert.NotNil(t, s.SectionTitles)
}

func TestWriteText(t *testing.T) {
	s := Stats{
		Documents:     2,
		Links:         3,
		ExternalLinks: 1,
		Unlinked:      []string{"b.md"},
		SectionTitles: []TitleCount{{Title: "notes", Count: 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "documents: 2\n")
	assert.Contains(t, out, "links: 3 (1 external, 0 images)\n")
	assert.Contains(t, out, "- b.md\n")
	assert.Contains(t, out, "    2  notes\n")
}
