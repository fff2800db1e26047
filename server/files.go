package server

import (
	"net/http"
	"strings"

	"privascope/extract"
	"privascope/store"
)

// handleFileText serves a file's extracted text, redacted through the
// requested privacy profiles. Profiles come from the profileId query
// parameter (comma separated, applied in order); when absent and the caller
// presented an API key, the key's attached profiles apply in their stored
// sequence.
func (s *Server) handleFileText(w http.ResponseWriter, r *http.Request) {
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

	rec, err := s.store.GetFile(r.PathValue("id"))
	if err != nil {
		s.logger.Error("loading file record", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	scope, err := s.store.GetScope(rec.ScopeID)
	if err != nil {
		s.logger.Error("loading scope", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if scope == nil || scope.OwnerID != ident.ownerID {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	if ident.key != nil && !store.Allows(ident.key.Permissions, store.PermFilesRead) {
		writeError(w, http.StatusForbidden, "key does not permit file reads")
		return
	}

	profileIDs := splitParam(r.URL.Query().Get("profileId"))
	if len(profileIDs) == 0 && ident.key != nil {
		profiles, err := s.store.ProfilesForKey(ident.key.ID)
		if err != nil {
			s.logger.Error("loading key profiles", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, p := range profiles {
			profileIDs = append(profileIDs, p.ID)
		}
	}

	text := extract.Text(rec.Path)
	redacted := s.redactor.ApplyProfiles(text, s.store, profileIDs)

	s.logger.Info("file text served",
		"fileId", rec.ID,
		"path", rec.Path,
		"profiles", len(profileIDs),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(redacted))
}

func splitParam(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
