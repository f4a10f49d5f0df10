package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/testutil"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("one/three/../two/three/../../new.md")
	require.NoError(t, err)
	assert.Equal(t, "one/new.md", got)

	got, err = Normalize("./a//b/./c.md")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.md", got)

	_, err = Normalize("one/../../1.md")
	assert.ErrorIs(t, err, ErrPathEscapesRoot)
}

func TestClassify(t *testing.T) {
	tests := map[string]EntryType{
		"one.md":            EntryDocument,
		"sub/two.md":        EntryDocument,
		"photo.png":         EntryResource,
		"sub":               EntryDirectory,
		"":                  EntryDirectory,
		"sub/tikibase.json": EntryConfiguration,
		".gitignore":        EntryIgnored,
	}
	for give, want := range tests {
		assert.Equal(t, want, Classify(give), give)
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct{ from, to, want string }{
		{"1.md", "2.md", "2.md"},
		{"1.md", "sub/2.md", "sub/2.md"},
		{"sub/1.md", "2.md", "../2.md"},
		{"a/b/1.md", "a/c/2.md", "../c/2.md"},
		{"a/1.md", "a/2.md", "2.md"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RelativePath(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestLoad(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{
		"1.md":              "# One\n",
		"photo.png":         "png",
		".hidden.md":        "# Hidden\n",
		"tikibase.json":     `{"$schema": "x", "bidiLinks": true, "ignore": ["*.tmp"]}`,
		"scratch.tmp":       "tmp",
		"sub/2.md":          "# Two\n",
		"sub/tikibase.json": `{"sections": ["notes"]}`,
	})

	root, issues := Load(store)
	assert.Empty(t, issues)

	require.NotNil(t, root.Document("1.md"))
	require.NotNil(t, root.Document("sub/2.md"))
	assert.Nil(t, root.Document(".hidden.md"))
	assert.True(t, root.HasResource("photo.png"))
	assert.False(t, root.HasResource("scratch.tmp"))
	assert.Equal(t, []string{"photo.png"}, root.ResourcePaths())

	sub := root.Dir("sub")
	require.NotNil(t, sub)
	assert.True(t, sub.Config.Bidi(), "bidiLinks inherited from the parent")
	assert.Equal(t, []string{"notes"}, sub.Config.Sections)
	assert.False(t, root.Config.HasSections())

	var paths []string
	for _, d := range root.Documents() {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"1.md", "sub/2.md"}, paths)
}

func TestLoad_ChildOverridesParent(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{
		"tikibase.json":     `{"bidiLinks": true, "sections": ["a", "b"]}`,
		"sub/tikibase.json": `{"bidiLinks": false}`,
		"sub/1.md":          "# One\n",
	})
	root, issues := Load(store)
	require.Empty(t, issues)
	cfg := root.ConfigFor("sub/1.md")
	assert.False(t, cfg.Bidi())
	assert.Equal(t, []string{"a", "b"}, cfg.Sections)
}

func TestLoad_Errors(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{
		"ok.md":             "# Fine\n",
		"notitle.md":        "no title\n",
		"fence.md":          "# Fence\n```\ncode\n",
		"bad/tikibase.json": `{"unknown": 1}`,
		"bad/skipped.md":    "# Skipped\n",
	})
	root, issues := Load(store)

	kinds := map[string]issue.Kind{}
	for _, i := range issues {
		kinds[i.Location.File] = i.Kind
	}
	assert.Equal(t, map[string]issue.Kind{
		"notitle.md":        issue.NoTitleSection,
		"fence.md":          issue.UnclosedFence,
		"bad/tikibase.json": issue.InvalidConfigurationFile,
	}, kinds)
	assert.NotNil(t, root.Document("ok.md"))
	assert.Nil(t, root.Document("notitle.md"))
	assert.Nil(t, root.Dir("bad"), "invalid config skips the subtree")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":          `{"sectionz": []}`,
		"duplicate sections":   `{"sections": ["a", "a"]}`,
		"empty section":        `{"sections": [""]}`,
		"empty ignore":         `{"ignore": [""]}`,
		"bad glob":             `{"ignore": ["[a"]}`,
		"bad regex":            `{"titleRegEx": "("}`,
		"not json":             `{`,
		"sections as string":   `{"sections": "one"}`,
		"bidiLinks as number":  `{"bidiLinks": 1}`,
		"bidiLinks as string":  `{"bidiLinks": "true"}`,
		"titleRegEx as number": `{"titleRegEx": 5}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, store := testutil.TestBase(t, map[string]string{"tikibase.json": content})
			abs, err := store.Abs("tikibase.json")
			require.NoError(t, err)
			_, err = LoadConfig(abs)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_TracksSetFields(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{"tikibase.json": `{"sections": [], "titleRegEx": "^(.+?)\\s"}`})
	abs, err := store.Abs("tikibase.json")
	require.NoError(t, err)
	cfg, err := LoadConfig(abs)
	require.NoError(t, err)
	assert.NotNil(t, cfg.Sections)
	assert.Empty(t, cfg.Sections)
	assert.Nil(t, cfg.Ignore)
	assert.Nil(t, cfg.BidiLinks)
	assert.Equal(t, `^(.+?)\s`, cfg.TitlePattern())
}

func TestClassifyLink_Ignored(t *testing.T) {
	_, store := testutil.TestBase(t, map[string]string{
		"tikibase.json": `{"ignore": ["drafts/**"]}`,
		"LICENSE":       "text",
	})
	root, issues := Load(store)
	require.Empty(t, issues)
	assert.Equal(t, EntryIgnored, root.ClassifyLink("drafts/x.md"))
	assert.Equal(t, EntryResource, root.ClassifyLink("LICENSE"))
	assert.Equal(t, EntryDocument, root.ClassifyLink("x.md"))
}

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	props, ok := got["properties"].(map[string]any)
	require.True(t, ok, "schema has properties")
	for _, key := range []string{"$schema", "sections", "ignore", "bidiLinks", "titleRegEx"} {
		assert.Contains(t, props, key)
	}
	assert.Equal(t, false, got["additionalProperties"])
}

func TestDefaultConfigFile_Loads(t *testing.T) {
	data, err := DefaultConfigFile()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema": "./tikibase.schema.json"`)

	_, store := testutil.TestBase(t, map[string]string{ConfigFileName: string(data), "a.md": "# A\n"})
	_, issues := Load(store)
	assert.Empty(t, issues)
}
