// Package seen persists which sender addresses have already had a rule
// generated for them, so repeated discovery runs only surface new
// correspondents.
package seen

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS proposed_senders (
	email TEXT PRIMARY KEY,
	proposed_at INTEGER NOT NULL
);`

// Store is a small sqlite-backed set of addresses.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path, creating parent directories as
// needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Filter returns the addresses not yet recorded, preserving input order.
func (s *Store) Filter(emails []string) ([]string, error) {
	var out []string
	for _, e := range emails {
		var one int
		err := s.db.QueryRow(`SELECT 1 FROM proposed_senders WHERE email = ?`, strings.ToLower(e)).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out = append(out, e)
		case err != nil:
			return nil, fmt.Errorf("failed to query state db: %w", err)
		}
	}
	return out, nil
}

// Mark records addresses as proposed. Already-recorded addresses keep
// their original timestamp.
func (s *Store) Mark(emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	now := time.Now().Unix()
	for _, e := range emails {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO proposed_senders (email, proposed_at) VALUES (?, ?)`, strings.ToLower(e), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record sender: %w", err)
		}
	}
	return tx.Commit()
}
