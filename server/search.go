package server

import (
	"net/http"
	"time"

	"privascope/index"
)

const defaultSearchLimit = 50

type snippetJSON struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type searchResult struct {
	FileID   string        `json:"fileId"`
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Snippets []snippetJSON `json:"snippets,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// handleSearch answers GET /search. A content term consults the full-text
// index; name and directory filters alone fall back to the metadata store.
// All-empty criteria return an empty result set.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ident, err := s.identify(r)
	if err != nil {
		s.logger.Error("resolving caller", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ident == nil {
		writeError(w, http.StatusUnauthorized, "unknown API key")
		return
	}

	q := r.URL.Query()
	filename := q.Get("filename")
	content := q.Get("content")
	directory := q.Get("directory")

	results := []searchResult{}
	if filename == "" && content == "" && directory == "" {
		writeJSON(w, http.StatusOK, searchResponse{Results: results})
		return
	}

	if content != "" {
		hits, err := s.index.Search(index.Criteria{
			Filename:   filename,
			Content:    content,
			Directory:  directory,
			MaxResults: defaultSearchLimit,
		})
		if err != nil {
			s.logger.Error("content search failed", "content", content, "error", err)
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		owned, err := s.ownedScopeIDs(ident.ownerID)
		if err != nil {
			s.logger.Error("listing scopes", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, hit := range hits {
			rec, err := s.store.GetFile(hit.FileID)
			if err != nil {
				s.logger.Error("loading file record", "fileId", hit.FileID, "error", err)
				continue
			}
			if rec == nil || !owned[rec.ScopeID] {
				continue
			}
			sr := searchResult{FileID: hit.FileID, Path: hit.Path, Name: hit.Name}
			for _, sn := range hit.Snippets {
				sr.Snippets = append(sr.Snippets, snippetJSON{Line: sn.LineNumber, Text: sn.LineText})
			}
			results = append(results, sr)
		}
	} else {
		records, err := s.store.SearchFiles(ident.ownerID, filename, directory)
		if err != nil {
			s.logger.Error("metadata search failed", "error", err)
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		for _, rec := range records {
			results = append(results, searchResult{FileID: rec.ID, Path: rec.Path, Name: rec.Name})
		}
	}

	s.logger.Info("search",
		"filename", filename,
		"content", content,
		"directory", directory,
		"results", len(results),
		"elapsed", time.Since(start),
	)
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) ownedScopeIDs(ownerID string) (map[string]bool, error) {
	scopes, err := s.store.ListScopes(ownerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(scopes))
	for _, sc := range scopes {
		owned[sc.ID] = true
	}
	return owned, nil
}
