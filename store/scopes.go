package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateScope registers a new scope. The (ownerID, rootPath) pair must be
// unique per owner.
func (s *Store) CreateScope(ownerID, rootPath, displayName string) (*Scope, error) {
	scope := &Scope{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		RootPath:    rootPath,
		DisplayName: displayName,
	}
	_, err := s.db.Exec(
		"INSERT INTO scopes (id, owner_id, root_path, display_name) VALUES (?, ?, ?, ?)",
		scope.ID, scope.OwnerID, scope.RootPath, scope.DisplayName,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting scope: %w", err)
	}
	return scope, nil
}

// GetScope returns the scope with the given id, or nil if it does not exist.
func (s *Store) GetScope(id string) (*Scope, error) {
	row := s.db.QueryRow(
		"SELECT id, owner_id, root_path, display_name FROM scopes WHERE id = ?", id,
	)
	var scope Scope
	err := row.Scan(&scope.ID, &scope.OwnerID, &scope.RootPath, &scope.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading scope: %w", err)
	}
	return &scope, nil
}

// ListScopes returns all scopes belonging to the owner.
func (s *Store) ListScopes(ownerID string) ([]*Scope, error) {
	rows, err := s.db.Query(
		"SELECT id, owner_id, root_path, display_name FROM scopes WHERE owner_id = ? ORDER BY root_path",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing scopes: %w", err)
	}
	defer rows.Close()

	var scopes []*Scope
	for rows.Next() {
		var scope Scope
		if err := rows.Scan(&scope.ID, &scope.OwnerID, &scope.RootPath, &scope.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning scope: %w", err)
		}
		scopes = append(scopes, &scope)
	}
	return scopes, rows.Err()
}

// ListAllScopes returns every registered scope regardless of owner.
func (s *Store) ListAllScopes() ([]*Scope, error) {
	rows, err := s.db.Query(
		"SELECT id, owner_id, root_path, display_name FROM scopes ORDER BY root_path",
	)
	if err != nil {
		return nil, fmt.Errorf("listing scopes: %w", err)
	}
	defer rows.Close()

	var scopes []*Scope
	for rows.Next() {
		var scope Scope
		if err := rows.Scan(&scope.ID, &scope.OwnerID, &scope.RootPath, &scope.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning scope: %w", err)
		}
		scopes = append(scopes, &scope)
	}
	return scopes, rows.Err()
}

// DeleteScope removes a scope; its file records go with it via cascade.
func (s *Store) DeleteScope(id string) error {
	if _, err := s.db.Exec("DELETE FROM scopes WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting scope: %w", err)
	}
	return nil
}
