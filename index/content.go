// Package index provides full-text search over extracted file content using
// an in-memory Bleve index keyed by file record id.
package index

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Entry is the indexed representation of one file's extracted text.
type Entry struct {
	ScopeID string
	Path    string
	Name    string
	Dir     string
	Content string
}

// ContentIndex wraps a Bleve in-memory index. Raw content is kept in a side
// map for line-level snippet extraction, Bleve only stores the tokenized
// fields.
type ContentIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// entries stores raw content and metadata per file id
	entries map[string]Entry
}

// NewContentIndex creates a new in-memory Bleve content index.
func NewContentIndex() (*ContentIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &ContentIndex{
		index:   bleveIndex,
		entries: make(map[string]Entry),
	}, nil
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Content string `json:"content"`
	Name    string `json:"name"`
	Dir     string `json:"dir"`
	Scope   string `json:"scope"`
}

// buildIndexMapping creates the Bleve index mapping for extracted text.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false // content lives in the entries map
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	dirFieldMapping := bleve.NewKeywordFieldMapping()
	dirFieldMapping.Store = true
	dirFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("dir", dirFieldMapping)

	scopeFieldMapping := bleve.NewKeywordFieldMapping()
	scopeFieldMapping.Store = true
	scopeFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("scope", scopeFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Index adds or overwrites a file's entry. Upserts are idempotent: indexing
// the same id twice leaves exactly one document.
func (ci *ContentIndex) Index(fileID string, entry Entry) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	doc := bleveDocument{
		Content: entry.Content,
		Name:    entry.Name,
		Dir:     entry.Dir,
		Scope:   entry.ScopeID,
	}
	ci.entries[fileID] = entry

	if err := ci.index.Index(fileID, doc); err != nil {
		return fmt.Errorf("indexing file %s: %w", fileID, err)
	}
	return nil
}

// Remove deletes a file's entry from the index.
func (ci *ContentIndex) Remove(fileID string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.entries, fileID)
	if err := ci.index.Delete(fileID); err != nil {
		return fmt.Errorf("removing file %s from index: %w", fileID, err)
	}
	return nil
}

// RemoveScope deletes every entry belonging to the scope.
func (ci *ContentIndex) RemoveScope(scopeID string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	for fileID, entry := range ci.entries {
		if entry.ScopeID != scopeID {
			continue
		}
		delete(ci.entries, fileID)
		if err := ci.index.Delete(fileID); err != nil {
			return fmt.Errorf("removing file %s from index: %w", fileID, err)
		}
	}
	return nil
}

// Get returns the indexed entry for a file id.
func (ci *ContentIndex) Get(fileID string) (Entry, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	entry, ok := ci.entries[fileID]
	return entry, ok
}

// DocumentCount returns the number of documents in the Bleve index.
func (ci *ContentIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Close closes the Bleve index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}
