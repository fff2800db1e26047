package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateProfile creates a named privacy profile for the owner.
func (s *Store) CreateProfile(ownerID, name string) (*Profile, error) {
	p := &Profile{ID: uuid.NewString(), OwnerID: ownerID, Name: name}
	_, err := s.db.Exec(
		"INSERT INTO profiles (id, owner_id, name) VALUES (?, ?, ?)",
		p.ID, p.OwnerID, p.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting profile: %w", err)
	}
	return p, nil
}

// GetProfile returns the profile with the given id, or nil if absent.
func (s *Store) GetProfile(id string) (*Profile, error) {
	row := s.db.QueryRow("SELECT id, owner_id, name FROM profiles WHERE id = ?", id)
	var p Profile
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return &p, nil
}

// FindProfileByName returns the owner's profile with the given name, or nil.
func (s *Store) FindProfileByName(ownerID, name string) (*Profile, error) {
	row := s.db.QueryRow(
		"SELECT id, owner_id, name FROM profiles WHERE owner_id = ? AND name = ?",
		ownerID, name,
	)
	var p Profile
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return &p, nil
}

// CreateRule appends a rule to a profile. Sequence controls application
// order within the profile.
func (s *Store) CreateRule(r *Rule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	active := 0
	if r.IsActive {
		active = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO rules (id, profile_id, type, pattern, replacement, is_active, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProfileID, string(r.Type), r.Pattern, r.Replacement, active, r.Sequence,
	)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// GetRules returns a profile's rules ordered by sequence, then by id for a
// stable order among equal sequences.
func (s *Store) GetRules(profileID string) ([]*Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, type, pattern, replacement, is_active, sequence
		FROM rules WHERE profile_id = ? ORDER BY sequence, id`, profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		var r Rule
		var typ string
		var active int
		if err := rows.Scan(&r.ID, &r.ProfileID, &typ, &r.Pattern, &r.Replacement, &active, &r.Sequence); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.Type = RuleType(typ)
		r.IsActive = active != 0
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}
