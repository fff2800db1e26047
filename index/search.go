package index

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/bmatcuk/doublestar/v4"
)

// Criteria filters a search. All fields are optional, but at least one of
// Filename, Content or Directory must be set; all-empty criteria match
// nothing rather than everything.
type Criteria struct {
	Filename   string // glob (doublestar) or substring match on the file name
	Content    string // full-text match against extracted content
	Directory  string // path prefix match on the containing directory
	MaxResults int
}

func (c Criteria) empty() bool {
	return c.Filename == "" && c.Content == "" && c.Directory == ""
}

// Snippet is one matching line of content.
type Snippet struct {
	LineNumber int
	LineText   string
}

// Result is one file matching the search criteria.
type Result struct {
	FileID   string
	Path     string
	Name     string
	Snippets []Snippet
}

const maxSnippetsPerFile = 3

// Search runs the criteria against the index. With a content term the Bleve
// index drives the search and relevance order; filename and directory act
// as post-filters. Without one, entries are filtered by metadata alone.
func (ci *ContentIndex) Search(criteria Criteria) ([]Result, error) {
	if criteria.empty() {
		return nil, nil
	}
	if criteria.MaxResults <= 0 {
		criteria.MaxResults = 50
	}

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if criteria.Content == "" {
		return ci.metadataSearch(criteria), nil
	}

	searchRequest := bleve.NewSearchRequest(bleve.NewMatchQuery(criteria.Content))
	// Over-fetch because metadata post-filters may discard hits.
	searchRequest.Size = criteria.MaxResults * 5
	searchRequest.Fields = []string{"name", "dir"}

	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, hit := range searchResults.Hits {
		entry, ok := ci.entries[hit.ID]
		if !ok {
			continue
		}
		if !matchMetadata(entry, criteria) {
			continue
		}
		results = append(results, Result{
			FileID:   hit.ID,
			Path:     entry.Path,
			Name:     entry.Name,
			Snippets: findMatchingLines(entry.Content, criteria.Content),
		})
		if len(results) >= criteria.MaxResults {
			break
		}
	}
	return results, nil
}

// metadataSearch filters entries by filename/directory only, in path order.
func (ci *ContentIndex) metadataSearch(criteria Criteria) []Result {
	var results []Result
	for fileID, entry := range ci.entries {
		if !matchMetadata(entry, criteria) {
			continue
		}
		results = append(results, Result{FileID: fileID, Path: entry.Path, Name: entry.Name})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	if len(results) > criteria.MaxResults {
		results = results[:criteria.MaxResults]
	}
	return results
}

func matchMetadata(entry Entry, criteria Criteria) bool {
	if criteria.Directory != "" && !underDirectory(entry.Dir, criteria.Directory) {
		return false
	}
	if criteria.Filename != "" && !matchFilename(entry.Name, criteria.Filename) {
		return false
	}
	return true
}

// underDirectory reports whether dir equals prefix or lies beneath it. The
// prefix has to end at a path separator so "/data" cannot match "/data2".
func underDirectory(dir, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/"+string(filepath.Separator))
	return dir == prefix || strings.HasPrefix(dir, prefix+string(filepath.Separator))
}

// matchFilename treats patterns with glob metacharacters as doublestar
// globs and anything else as a case-insensitive substring match.
func matchFilename(name, pattern string) bool {
	if strings.ContainsAny(pattern, "*?[{") {
		matched, err := doublestar.Match(pattern, name)
		return err == nil && matched
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

// findMatchingLines scans content line by line for the search term.
func findMatchingLines(content, term string) []Snippet {
	lines := strings.Split(content, "\n")
	termLower := strings.ToLower(term)

	var snippets []Snippet
	for lineIdx, line := range lines {
		if !strings.Contains(strings.ToLower(line), termLower) {
			continue
		}
		snippets = append(snippets, Snippet{
			LineNumber: lineIdx + 1, // 1-based
			LineText:   strings.TrimSpace(line),
		})
		if len(snippets) >= maxSnippetsPerFile {
			break
		}
	}
	return snippets
}
