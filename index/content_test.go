package index

import (
	"testing"
)

func newTestContentIndex(t *testing.T) *ContentIndex {
	t.Helper()
	ci, err := NewContentIndex()
	if err != nil {
		t.Fatalf("failed to create content index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })
	return ci
}

func Test_ContentIndex_IndexAndSearch(t *testing.T) {
	ci := newTestContentIndex(t)

	err := ci.Index("file-1", Entry{
		ScopeID: "scope-1",
		Path:    "/data/a.txt",
		Name:    "a.txt",
		Dir:     "/data",
		Content: "hello world\nanother line",
	})
	if err != nil {
		t.Fatalf("failed to index: %v", err)
	}

	results, err := ci.Search(Criteria{Content: "hello"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].FileID != "file-1" {
		t.Errorf("expected file-1, got %s", results[0].FileID)
	}
	if len(results[0].Snippets) == 0 || results[0].Snippets[0].LineNumber != 1 {
		t.Errorf("expected snippet on line 1, got %+v", results[0].Snippets)
	}
}

func Test_ContentIndex_OverwriteById(t *testing.T) {
	ci := newTestContentIndex(t)

	entry := Entry{ScopeID: "s", Path: "/d/f.txt", Name: "f.txt", Dir: "/d", Content: "original content"}
	if err := ci.Index("file-1", entry); err != nil {
		t.Fatal(err)
	}
	entry.Content = "replacement content"
	if err := ci.Index("file-1", entry); err != nil {
		t.Fatal(err)
	}

	if count := ci.DocumentCount(); count != 1 {
		t.Errorf("expected one document after overwrite, got %d", count)
	}

	results, err := ci.Search(Criteria{Content: "original"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("old content still searchable: %+v", results)
	}

	results, err = ci.Search(Criteria{Content: "replacement"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected new content to match, got %d results", len(results))
	}
}

func Test_ContentIndex_EmptyCriteria(t *testing.T) {
	ci := newTestContentIndex(t)

	ci.Index("file-1", Entry{ScopeID: "s", Path: "/d/f.txt", Name: "f.txt", Dir: "/d", Content: "anything"})

	results, err := ci.Search(Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty criteria must match nothing, got %d results", len(results))
	}
}

func Test_ContentIndex_FilenameFilter(t *testing.T) {
	ci := newTestContentIndex(t)

	ci.Index("file-1", Entry{ScopeID: "s", Path: "/d/report.txt", Name: "report.txt", Dir: "/d", Content: "findings here"})
	ci.Index("file-2", Entry{ScopeID: "s", Path: "/d/report.pdf", Name: "report.pdf", Dir: "/d", Content: "findings there"})

	// Glob pattern.
	results, err := ci.Search(Criteria{Filename: "*.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "report.pdf" {
		t.Errorf("glob filter failed: %+v", results)
	}

	// Substring, combined with content.
	results, err = ci.Search(Criteria{Content: "findings", Filename: "report"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected both reports, got %d", len(results))
	}
}

func Test_ContentIndex_DirectoryFilter(t *testing.T) {
	ci := newTestContentIndex(t)

	ci.Index("file-1", Entry{ScopeID: "s", Path: "/data/inbox/a.txt", Name: "a.txt", Dir: "/data/inbox", Content: "shared term"})
	ci.Index("file-2", Entry{ScopeID: "s", Path: "/data/archive/b.txt", Name: "b.txt", Dir: "/data/archive", Content: "shared term"})
	ci.Index("file-3", Entry{ScopeID: "s", Path: "/data/inbox2/c.txt", Name: "c.txt", Dir: "/data/inbox2", Content: "shared term"})

	results, err := ci.Search(Criteria{Content: "shared", Directory: "/data/inbox"})
	if err != nil {
		t.Fatal(err)
	}
	// The sibling /data/inbox2 must not slip through the prefix.
	if len(results) != 1 || results[0].Name != "a.txt" {
		t.Errorf("directory filter failed: %+v", results)
	}

	results, err = ci.Search(Criteria{Content: "shared", Directory: "/data/inbox/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "a.txt" {
		t.Errorf("trailing separator changed the filter: %+v", results)
	}

	results, err = ci.Search(Criteria{Content: "shared", Directory: "/data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("parent directory should match all entries beneath it, got %d", len(results))
	}
}

func Test_ContentIndex_RemoveScope(t *testing.T) {
	ci := newTestContentIndex(t)

	ci.Index("file-1", Entry{ScopeID: "s1", Path: "/a/x.txt", Name: "x.txt", Dir: "/a", Content: "keep or drop"})
	ci.Index("file-2", Entry{ScopeID: "s2", Path: "/b/y.txt", Name: "y.txt", Dir: "/b", Content: "keep or drop"})

	if err := ci.RemoveScope("s1"); err != nil {
		t.Fatal(err)
	}

	if _, ok := ci.Get("file-1"); ok {
		t.Error("scope s1 entry survived RemoveScope")
	}
	if _, ok := ci.Get("file-2"); !ok {
		t.Error("scope s2 entry was removed")
	}

	results, err := ci.Search(Criteria{Content: "drop"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].FileID != "file-2" {
		t.Errorf("unexpected results after RemoveScope: %+v", results)
	}
}
