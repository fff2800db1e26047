// Package store persists scopes, file records, search settings, privacy
// profiles and API keys in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"privascope/store/migrations"
)

// Scope is a registered root directory to be crawled.
type Scope struct {
	ID          string
	OwnerID     string
	RootPath    string
	DisplayName string
}

// FileRecord is the persisted metadata for one discovered file.
// ID is the join key into the content index.
type FileRecord struct {
	ID        string
	ScopeID   string
	Path      string
	Name      string
	Extension string
	SizeBytes int64
	MimeType  string
	UpdatedAt time.Time
}

// SearchSettings holds per-owner crawl/index preferences. An empty
// AllowedExtensions means the server defaults apply.
type SearchSettings struct {
	OwnerID           string
	AllowedExtensions []string
}

// Profile is a named, ordered collection of redaction rules.
type Profile struct {
	ID      string
	OwnerID string
	Name    string
}

// RuleType distinguishes verbatim from regular-expression patterns.
type RuleType string

const (
	RuleLiteral RuleType = "LITERAL"
	RuleRegex   RuleType = "REGEX"
)

// Rule is a single redaction rule belonging to one profile.
type Rule struct {
	ID          string
	ProfileID   string
	Type        RuleType
	Pattern     string
	Replacement string
	IsActive    bool
	Sequence    int
}

// APIKey grants scoped access and carries an ordered set of attached
// privacy profiles.
type APIKey struct {
	ID          string
	OwnerID     string
	Secret      string
	Permissions []Permission
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	// SQLite ships with foreign keys off and the pragma is per-connection,
	// so it has to ride the DSN to cover every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection to :memory: is a separate empty database.
		db.SetMaxOpenConns(1)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
