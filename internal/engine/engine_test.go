package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestScan_IncludesLoadIssues(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{
		"a.md": "no title\n",
		"b.md": "# B\n[x](missing.md)\n",
	})
	report := New(store, discard).Scan()

	var kinds []issue.Kind
	for _, i := range report.Issues {
		kinds = append(kinds, i.Kind)
	}
	assert.Equal(t, []issue.Kind{issue.NoTitleSection, issue.LinkToNonExistingFile}, kinds)
	assert.Nil(t, report.Root.Document("a.md"))
	assert.NotNil(t, report.Root.Document("b.md"))
}

func TestFix_Pitstop(t *testing.T) {
	dir, store := testutil.TestBase(t, map[string]string{
		"tikibase.json": `{"bidiLinks": true}`,
		"1.md":          "# One\ntext\n",
		"2.md":          "# Two\n[one](1.md) [gone](gone.md)\n",
	})
	e := New(store, discard)

	before, res := e.Fix()
	assert.Len(t, before.Issues, 3)
	require.Len(t, res.Fixes, 1)
	assert.Equal(t, issue.AddedOccurrence, res.Fixes[0].Kind)
	require.Len(t, res.Unfixed, 2)
	assert.Equal(t, issue.DocumentWithoutLinks, res.Unfixed[0].Kind)
	assert.Equal(t, issue.LinkToNonExistingFile, res.Unfixed[1].Kind)
	assert.Contains(t, testutil.ReadFile(t, dir, "1.md"), "### occurrences")

	after := e.Scan()
	require.Len(t, after.Issues, 1)
	assert.Equal(t, issue.LinkToNonExistingFile, after.Issues[0].Kind)
}
