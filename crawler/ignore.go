package crawler

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
)

// defaultIgnoreNames are directory/file names that are never crawled,
// regardless of extension.
var defaultIgnoreNames = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
	"target":       {},
	"venv":         {},
	"__pycache__":  {},
}

// ignoreMatcher decides whether a directory entry is skipped during a scan.
// It combines the hard-coded ignore set, dot-prefix hiding, and the scope
// root's .gitignore when one exists.
type ignoreMatcher struct {
	root      string
	gitIgnore gitignore.GitIgnore
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	return &ignoreMatcher{
		root:      root,
		gitIgnore: loadIgnoreFile(filepath.Join(root, ".gitignore"), root),
	}
}

// Ignore reports whether the entry at absolutePath should be skipped.
func (m *ignoreMatcher) Ignore(absolutePath string, isDir bool) bool {
	name := filepath.Base(absolutePath)
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, found := defaultIgnoreNames[name]; found {
		return true
	}

	if m.gitIgnore != nil {
		relativePath, err := filepath.Rel(m.root, absolutePath)
		if err == nil {
			relativePath = filepath.ToSlash(relativePath)
			// Relative() matches without requiring the file to exist on disk.
			if match := m.gitIgnore.Relative(relativePath, isDir); match != nil && match.Ignore() {
				return true
			}
		}
	}
	return false
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses the io.Reader form so the file handle is closed promptly.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
