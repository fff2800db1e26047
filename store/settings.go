package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// GetSearchSettings returns the owner's persisted search settings, or nil if
// the owner has none (server defaults apply).
func (s *Store) GetSearchSettings(ownerID string) (*SearchSettings, error) {
	row := s.db.QueryRow(
		"SELECT owner_id, allowed_extensions FROM search_settings WHERE owner_id = ?", ownerID,
	)
	var settings SearchSettings
	var exts string
	err := row.Scan(&settings.OwnerID, &exts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading search settings: %w", err)
	}
	settings.AllowedExtensions = splitExtensions(exts)
	return &settings, nil
}

// UpsertSearchSettings stores the owner's allow-list. An empty list clears
// the override and restores server defaults.
func (s *Store) UpsertSearchSettings(settings *SearchSettings) error {
	exts := strings.Join(settings.AllowedExtensions, ",")
	_, err := s.db.Exec(`
		INSERT INTO search_settings (owner_id, allowed_extensions) VALUES (?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET allowed_extensions = excluded.allowed_extensions`,
		settings.OwnerID, exts,
	)
	if err != nil {
		return fmt.Errorf("upserting search settings: %w", err)
	}
	return nil
}

func splitExtensions(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	for _, ext := range strings.Split(joined, ",") {
		ext = strings.TrimSpace(ext)
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
