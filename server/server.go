// Package server exposes scope registration, file text retrieval and search
// over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"privascope/crawler"
	"privascope/index"
	"privascope/redact"
	"privascope/store"
)

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	store    *store.Store
	index    *index.ContentIndex
	crawler  *crawler.Crawler
	redactor *redact.Engine
	logger   *slog.Logger
	ownerID  string
}

// New assembles a Server for the given owner.
func New(s *store.Store, ci *index.ContentIndex, c *crawler.Crawler, red *redact.Engine, logger *slog.Logger, ownerID string) *Server {
	return &Server{
		store:    s,
		index:    ci,
		crawler:  c,
		redactor: red,
		logger:   logger,
		ownerID:  ownerID,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scopes", s.handleCreateScope)
	mux.HandleFunc("POST /scopes/{id}/refresh", s.handleRefreshScope)
	mux.HandleFunc("GET /files/{id}/text", s.handleFileText)
	mux.HandleFunc("GET /search", s.handleSearch)
	return mux
}

// identity is the resolved caller: the configured owner by default, or the
// owner of a presented API key.
type identity struct {
	ownerID string
	key     *store.APIKey
}

// identify resolves the caller from the X-Api-Key header. A missing header
// falls back to the configured owner; an unknown secret yields a nil
// identity, which handlers answer with 401.
func (s *Server) identify(r *http.Request) (*identity, error) {
	secret := r.Header.Get("X-Api-Key")
	if secret == "" {
		return &identity{ownerID: s.ownerID}, nil
	}
	key, err := s.store.GetAPIKeyBySecret(secret)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, nil
	}
	return &identity{ownerID: key.OwnerID, key: key}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
