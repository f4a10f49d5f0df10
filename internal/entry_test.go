package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/testutil"
)

var bidiBase = map[string]string{
	"tikibase.json": `{"bidiLinks": true}`,
	"1.md":          "# One\ntext\n",
	"2.md":          "# Two\n[one](1.md)\n",
	"3.md":          "# Three\n[one](1.md)\n[gone](gone.md)\n",
}

func testOpts(dir string, out io.Writer, extra ...Option) []Option {
	opts := []Option{
		WithConfig(NewDefaultConfig()),
		WithDir(dir),
		WithOutput(out),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return append(opts, extra...)
}

func TestCheck(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	n, err := Check(context.Background(), testOpts(dir, &out)...)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n != 4 {
		t.Errorf("issues = %d, want 4", n)
	}
	want := "1.md:1  document has no links\n"
	if !strings.HasPrefix(out.String(), want) {
		t.Errorf("output = %q, want prefix %q", out.String(), want)
	}
}

func TestCheck_JSON(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	if _, err := Check(context.Background(), testOpts(dir, &out, WithFormat("json"))...); err != nil {
		t.Fatal(err)
	}
	var msgs []issue.Message
	if err := json.Unmarshal(out.Bytes(), &msgs); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(msgs) != 4 {
		t.Errorf("messages = %d, want 4", len(msgs))
	}
}

func TestCheck_RequiresConfig(t *testing.T) {
	if _, err := Check(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}

func TestCheck_RejectsUnknownFormat(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	if _, err := Check(context.Background(), testOpts(dir, io.Discard, WithFormat("xml"))...); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFix_IsSilent(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	if err := Fix(context.Background(), testOpts(dir, &out)...); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("fix printed %q", out.String())
	}
	if got := testutil.ReadFile(t, dir, "1.md"); !strings.Contains(got, "### occurrences") {
		t.Errorf("1.md = %q, want occurrences section", got)
	}
}

func TestPitstop(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	n, err := Pitstop(context.Background(), testOpts(dir, &out)...)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("unfixed = %d, want 2", n)
	}
	if !strings.Contains(out.String(), `3.md:3  link to non-existing file "gone.md"`) {
		t.Errorf("output = %q", out.String())
	}

	n, err = Check(context.Background(), testOpts(dir, io.Discard)...)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("issues after pitstop = %d, want 1", n)
	}
}

func TestStats_JSON(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	if err := Stats(context.Background(), testOpts(dir, &out, WithFormat("json"))...); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["documents"] != float64(3) {
		t.Errorf("documents = %v, want 3", got["documents"])
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	if err := Init(ctx, testOpts(dir, io.Discard)...); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg := testutil.ReadFile(t, dir, "tikibase.json")
	if !strings.Contains(cfg, `"$schema": "./tikibase.schema.json"`) {
		t.Errorf("tikibase.json = %q", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, "tikibase.schema.json")); err != nil {
		t.Errorf("schema not written: %v", err)
	}

	err := Init(ctx, testOpts(dir, io.Discard)...)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second init err = %v, want ErrAlreadyExists", err)
	}
}

func TestJSONSchema(t *testing.T) {
	dir := t.TempDir()
	if err := JSONSchema(context.Background(), testOpts(dir, io.Discard)...); err != nil {
		t.Fatal(err)
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(testutil.ReadFile(t, dir, "tikibase.schema.json")), &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
}

func TestSearch(t *testing.T) {
	dir, _ := testutil.TestBase(t, bidiBase)
	var out bytes.Buffer
	if err := Search(context.Background(), "Three", 10, testOpts(dir, &out)...); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "3.md  Three\n" {
		t.Errorf("output = %q, want 3.md", got)
	}
	if _, err := os.Stat(filepath.Join(dir, ".tikibase", "index.db")); err != nil {
		t.Errorf("index not created: %v", err)
	}

	// The index lives in a hidden directory and is not part of the tikibase.
	n, err := Check(context.Background(), testOpts(dir, io.Discard)...)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("issues = %d, want 4", n)
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_RechecksOnChange(t *testing.T) {
	dir, _ := testutil.TestBase(t, map[string]string{"1.md": "# One\n"})
	cfg := NewDefaultConfig()
	cfg.Watch.Debounce = 50 * time.Millisecond
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, testOpts(dir, out, WithConfig(cfg))...)
	}()

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "2.md"), []byte("# Two\n[x](x.md)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(out.String(), "x.md") {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
	if !strings.Contains(out.String(), `2.md:2  link to non-existing file "x.md"`) {
		t.Errorf("output = %q", out.String())
	}
}
