package crawler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"privascope/extract/extracttest"
	"privascope/index"
	"privascope/store"
)

type testEnv struct {
	store   *store.Store
	index   *index.ContentIndex
	crawler *Crawler
	root    string
	scope   *store.Scope
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ci, err := index.NewContentIndex()
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })

	root := t.TempDir()
	scope, err := s.CreateScope("local", root, "test scope")
	if err != nil {
		t.Fatalf("creating scope: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		store:   s,
		index:   ci,
		crawler: New(s, ci, logger, opts),
		root:    root,
		scope:   scope,
	}
}

func (env *testEnv) scanAndWait(t *testing.T) ScanState {
	t.Helper()
	scan := env.crawler.Scan(env.scope)
	select {
	case <-scan.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("scan did not finish")
	}
	return scan.Stats()
}

func (env *testEnv) write(t *testing.T, relPath, content string) string {
	t.Helper()
	path := filepath.Join(env.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_Scan_EndToEnd(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt", ".pdf"}})

	env.write(t, "a.txt", "hello world")
	extracttest.WriteMinimalPDF(t, filepath.Join(env.root, "b.pdf"), "secret plan")
	env.write(t, ".hidden/ignored.txt", "should not appear")
	env.write(t, "node_modules/pkg/file.js", "var x = 1;")

	state := env.scanAndWait(t)

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 file records, got %d: %+v", len(files), files)
	}
	names := []string{files[0].Name, files[1].Name}
	for _, want := range []string{"a.txt", "b.pdf"} {
		if names[0] != want && names[1] != want {
			t.Errorf("missing file record for %s, got %v", want, names)
		}
	}
	if state.Processed != 2 {
		t.Errorf("processed = %d, want 2", state.Processed)
	}
	if state.Ignored == 0 {
		t.Error("expected ignored entries for .hidden and node_modules")
	}

	results, err := env.index.Search(index.Criteria{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "a.txt" {
		t.Errorf("search for hello: %+v", results)
	}

	results, err = env.index.Search(index.Criteria{Content: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "b.pdf" {
		t.Errorf("search for secret: %+v", results)
	}
}

func Test_Scan_Idempotent(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	env.write(t, "one.txt", "alpha")
	env.write(t, "sub/two.txt", "beta")

	first := env.scanAndWait(t)
	second := env.scanAndWait(t)

	if first.Processed != second.Processed {
		t.Errorf("processed drifted: %d then %d", first.Processed, second.Processed)
	}
	if second.Pruned != 0 {
		t.Errorf("unchanged tree pruned %d records", second.Pruned)
	}

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 records after double scan, got %d", len(files))
	}
	if count := env.index.DocumentCount(); count != 2 {
		t.Errorf("expected 2 index documents, got %d", count)
	}
}

func Test_Scan_DepthCeiling(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}, MaxDepth: 3})

	env.write(t, "d1/shallow.txt", "reachable")
	deep := "d1/d2/d3/d4/d5"
	env.write(t, deep+"/deep.txt", "unreachable")

	state := env.scanAndWait(t)

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.Contains(f.Path, "deep.txt") {
			t.Errorf("file beyond depth ceiling was upserted: %s", f.Path)
		}
	}
	if state.Ignored == 0 {
		t.Error("expected the over-deep directory to count as ignored")
	}
}

func Test_Scan_SymlinkCycleTerminates(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	env.write(t, "sub/file.txt", "content")
	if err := os.Symlink(env.root, filepath.Join(env.root, "sub", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	// Must terminate; symlinked directories are not followed.
	state := env.scanAndWait(t)
	if state.Processed == 0 {
		t.Error("expected at least one processed file")
	}
}

func Test_Scan_SizeAndExtensionGating(t *testing.T) {
	env := newTestEnv(t, Options{
		AllowedExtensions: []string{".txt", ".pdf"},
		MaxFileSizeBytes:  100,
		MaxDocSizeBytes:   100 * 1024,
	})

	env.write(t, "big.txt", strings.Repeat("x", 200))
	env.write(t, "small.txt", "tiny but searchable")
	env.write(t, "image.png", "pretend png bytes")
	// Over the plain ceiling, under the document ceiling.
	extracttest.WriteMinimalPDF(t, filepath.Join(env.root, "doc.pdf"), "indexed document text")

	env.scanAndWait(t)

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("all files should get records, got %d", len(files))
	}

	for _, tc := range []struct {
		term    string
		matches int
		reason  string
	}{
		{"searchable", 1, "small .txt under ceiling"},
		{"xxxxx", 0, ".txt over the plain-format ceiling"},
		{"pretend", 0, "extension not in allow-list"},
		{"indexed", 1, ".pdf over plain ceiling but under document ceiling"},
	} {
		results, err := env.index.Search(index.Criteria{Content: tc.term})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != tc.matches {
			t.Errorf("%s: got %d matches, want %d", tc.reason, len(results), tc.matches)
		}
	}
}

func Test_Scan_SettingsOverrideAllowList(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt", ".md"}})
	if err := env.store.UpsertSearchSettings(&store.SearchSettings{
		OwnerID:           "local",
		AllowedExtensions: []string{".md"},
	}); err != nil {
		t.Fatal(err)
	}

	env.write(t, "note.md", "markdown body")
	env.write(t, "plain.txt", "text body")

	env.scanAndWait(t)

	results, err := env.index.Search(index.Criteria{Content: "markdown"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("allowed .md was not indexed")
	}

	results, err = env.index.Search(index.Criteria{Content: "text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf(".txt indexed despite settings override: %+v", results)
	}
}

func Test_Scan_PrunesStaleRecords(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	keep := env.write(t, "keep.txt", "stays")
	gone := env.write(t, "gone.txt", "leaves")
	_ = keep

	env.scanAndWait(t)
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	state := env.scanAndWait(t)

	if state.Pruned != 1 {
		t.Errorf("pruned = %d, want 1", state.Pruned)
	}
	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "keep.txt" {
		t.Errorf("unexpected surviving records: %+v", files)
	}

	results, err := env.index.Search(index.Criteria{Content: "leaves"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Error("deleted file still searchable")
	}
}

func Test_Scan_GitignoreRespected(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt", ".log"}})
	env.write(t, ".gitignore", "*.log\n")
	env.write(t, "app.log", "log body")
	env.write(t, "readme.txt", "doc body")

	env.scanAndWait(t)

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "readme.txt" {
		t.Errorf("gitignore not honored: %+v", files)
	}
}

func Test_Scan_UnreadableSubtreeDoesNotAbort(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	env.write(t, "ok/fine.txt", "readable")
	env.write(t, "locked/secret.txt", "unreadable")
	if err := os.Chmod(filepath.Join(env.root, "locked"), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(filepath.Join(env.root, "locked"), 0o755) })

	env.scanAndWait(t)

	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range files {
		if f.Name == "fine.txt" {
			found = true
		}
	}
	if !found {
		t.Error("sibling subtree was not scanned after unreadable directory")
	}
}

func Test_ScanAll_CoversEveryOwner(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	env.write(t, "mine.txt", "local content")

	otherRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(otherRoot, "theirs.txt"), []byte("foreign content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.CreateScope("someone-else", otherRoot, "other"); err != nil {
		t.Fatal(err)
	}

	scans, err := env.crawler.ScanAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 2 {
		t.Fatalf("expected scans for 2 scopes, got %d", len(scans))
	}
	for _, scan := range scans {
		select {
		case <-scan.Done():
		case <-time.After(30 * time.Second):
			t.Fatal("scan did not finish")
		}
	}

	for _, term := range []string{"local", "foreign"} {
		results, err := env.index.Search(index.Criteria{Content: term})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 {
			t.Errorf("content %q not restored to the index: %+v", term, results)
		}
	}
}

func Test_Scan_DuplicateTriggerJoinsRunningScan(t *testing.T) {
	env := newTestEnv(t, Options{AllowedExtensions: []string{".txt"}})
	// Enough files that the scan is still running when re-triggered.
	for i := 0; i < 200; i++ {
		env.write(t, filepath.Join("bulk", string(rune('a'+i%26))+strings.Repeat("x", i%10)+".txt"), "body")
	}

	first := env.crawler.Scan(env.scope)
	second := env.crawler.Scan(env.scope)
	<-first.Done()
	<-second.Done()

	// Whether or not the second trigger joined, records must not duplicate.
	files, err := env.store.ListFilesForScope(env.scope.ID)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f.Path] {
			t.Errorf("duplicate record for %s", f.Path)
		}
		seen[f.Path] = true
	}
}
