package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// InstanceID returns this installation's stable identifier, generating and
// storing one on first call. Exported reports carry it so they can be
// traced back to the database that produced them.
func (s *Store) InstanceID() (string, error) {
	id, err := s.GetMetadata("instance_id")
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	id = hex.EncodeToString(b)
	if err := s.SetMetadata("instance_id", id); err != nil {
		return "", err
	}
	return id, nil
}
