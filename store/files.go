package store

import (
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertFile creates a file record keyed by (scopeID, path) or refreshes the
// size and timestamp of an existing one. Returns the record's id.
func (s *Store) UpsertFile(scopeID, path string, size int64, mtime time.Time) (string, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)

	row := s.db.QueryRow(
		"SELECT id FROM files WHERE scope_id = ? AND path = ?", scopeID, path,
	)
	var id string
	err := row.Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = s.db.Exec(`
			INSERT INTO files (id, scope_id, path, name, extension, size_bytes, mime_type, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, scopeID, path, name, ext, size, mimeType, mtime,
		)
		if err != nil {
			return "", fmt.Errorf("inserting file record: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("looking up file record: %w", err)
	default:
		_, err = s.db.Exec(
			"UPDATE files SET size_bytes = ?, updated_at = ? WHERE id = ?",
			size, mtime, id,
		)
		if err != nil {
			return "", fmt.Errorf("refreshing file record: %w", err)
		}
	}
	return id, nil
}

// GetFile returns the file record with the given id, or nil if absent.
func (s *Store) GetFile(id string) (*FileRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, scope_id, path, name, extension, size_bytes, mime_type, updated_at
		FROM files WHERE id = ?`, id,
	)
	return scanFile(row)
}

// ListFilesForScope returns every file record under the scope, ordered by path.
func (s *Store) ListFilesForScope(scopeID string) ([]*FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, scope_id, path, name, extension, size_bytes, mime_type, updated_at
		FROM files WHERE scope_id = ? ORDER BY path`, scopeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.ScopeID, &f.Path, &f.Name, &f.Extension,
			&f.SizeBytes, &f.MimeType, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning file record: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// DeleteFile removes a single file record.
func (s *Store) DeleteFile(id string) error {
	if _, err := s.db.Exec("DELETE FROM files WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}
	return nil
}

// SearchFiles filters an owner's file records by name substring and directory
// prefix. Both filters are optional but at least one must be non-empty.
func (s *Store) SearchFiles(ownerID, namePart, dirPrefix string) ([]*FileRecord, error) {
	if namePart == "" && dirPrefix == "" {
		return nil, nil
	}

	query := `
		SELECT f.id, f.scope_id, f.path, f.name, f.extension, f.size_bytes, f.mime_type, f.updated_at
		FROM files f JOIN scopes sc ON sc.id = f.scope_id
		WHERE sc.owner_id = ?`
	args := []any{ownerID}

	if namePart != "" {
		query += " AND f.name LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(namePart)+"%")
	}
	if dirPrefix != "" {
		// The prefix stops at a separator so "/data" cannot match "/data2".
		sep := string(filepath.Separator)
		dirPrefix = strings.TrimRight(dirPrefix, "/"+sep)
		query += " AND f.path LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(dirPrefix+sep)+"%")
	}
	query += " ORDER BY f.path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching files: %w", err)
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.ScopeID, &f.Path, &f.Name, &f.Extension,
			&f.SizeBytes, &f.MimeType, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning file record: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func scanFile(row *sql.Row) (*FileRecord, error) {
	var f FileRecord
	err := row.Scan(&f.ID, &f.ScopeID, &f.Path, &f.Name, &f.Extension,
		&f.SizeBytes, &f.MimeType, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading file record: %w", err)
	}
	return &f, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
