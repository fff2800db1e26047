package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateAPIKey stores a key with its serialized permission list.
func (s *Store) CreateAPIKey(ownerID, secret string, perms []Permission) (*APIKey, error) {
	key := &APIKey{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Secret:      secret,
		Permissions: perms,
	}
	_, err := s.db.Exec(
		"INSERT INTO api_keys (id, owner_id, secret, permissions) VALUES (?, ?, ?, ?)",
		key.ID, key.OwnerID, key.Secret, JoinPermissions(perms),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting api key: %w", err)
	}
	return key, nil
}

// GetAPIKeyBySecret looks up a key by its secret value, or nil if unknown.
func (s *Store) GetAPIKeyBySecret(secret string) (*APIKey, error) {
	row := s.db.QueryRow(
		"SELECT id, owner_id, secret, permissions FROM api_keys WHERE secret = ?", secret,
	)
	var key APIKey
	var joined string
	err := row.Scan(&key.ID, &key.OwnerID, &key.Secret, &joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading api key: %w", err)
	}
	key.Permissions, err = ParsePermissions(joined)
	if err != nil {
		return nil, fmt.Errorf("api key %s: %w", key.ID, err)
	}
	return &key, nil
}

// AttachProfile links a profile to a key at the given position in the key's
// redaction order.
func (s *Store) AttachProfile(keyID, profileID string, sequence int) error {
	_, err := s.db.Exec(`
		INSERT INTO key_profiles (key_id, profile_id, sequence) VALUES (?, ?, ?)
		ON CONFLICT (key_id, profile_id) DO UPDATE SET sequence = excluded.sequence`,
		keyID, profileID, sequence,
	)
	if err != nil {
		return fmt.Errorf("attaching profile: %w", err)
	}
	return nil
}

// ProfilesForKey returns the key's attached profiles in sequence order.
func (s *Store) ProfilesForKey(keyID string) ([]*Profile, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.owner_id, p.name
		FROM key_profiles kp JOIN profiles p ON p.id = kp.profile_id
		WHERE kp.key_id = ? ORDER BY kp.sequence, p.id`, keyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing key profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
