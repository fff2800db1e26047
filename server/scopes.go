package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
)

// createScopeRequest is the body of POST /scopes.
type createScopeRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"displayName,omitempty"`
}

type scopeResponse struct {
	ID          string `json:"id"`
	RootPath    string `json:"rootPath"`
	DisplayName string `json:"displayName"`
}

// handleCreateScope registers a directory and fires an initial scan. The
// path must name an existing directory.
func (s *Server) handleCreateScope(w http.ResponseWriter, r *http.Request) {
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

	var req createScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing directory")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = filepath.Base(absPath)
	}

	scope, err := s.store.CreateScope(ident.ownerID, absPath, displayName)
	if err != nil {
		s.logger.Warn("creating scope", "path", absPath, "error", err)
		writeError(w, http.StatusBadRequest, "scope could not be registered")
		return
	}

	s.crawler.Scan(scope)
	s.logger.Info("scope registered", "scopeId", scope.ID, "path", scope.RootPath)

	writeJSON(w, http.StatusOK, scopeResponse{
		ID:          scope.ID,
		RootPath:    scope.RootPath,
		DisplayName: scope.DisplayName,
	})
}

// handleRefreshScope triggers a rescan of an existing scope. The response
// does not wait for the scan to finish.
func (s *Server) handleRefreshScope(w http.ResponseWriter, r *http.Request) {
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

	scope, err := s.store.GetScope(r.PathValue("id"))
	if err != nil {
		s.logger.Error("loading scope", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if scope == nil || scope.OwnerID != ident.ownerID {
		writeError(w, http.StatusNotFound, "scope not found")
		return
	}

	s.crawler.Scan(scope)
	s.logger.Info("scope refresh triggered", "scopeId", scope.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
