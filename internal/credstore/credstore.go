// Package credstore persists the provider credential and minimal user
// profile across restarts. The OAuth consent flow itself happens outside
// this module; only its resulting token is stored here.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const fileName = "credentials.json"

// Profile is the minimal identity captured alongside the token.
type Profile struct {
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Credential couples the provider bearer token with the profile it was
// issued for.
type Credential struct {
	Token   oauth2.Token `json:"token"`
	Profile Profile      `json:"profile"`
}

// Valid reports whether the token can still be presented to the provider.
func (c *Credential) Valid() bool {
	return c != nil && c.Token.Valid()
}

// Store is a file-backed credential store. Zero concurrent-writer safety
// is assumed; the client serializes access.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string { return filepath.Join(s.dir, fileName) }

// Load reads the persisted credential. A missing file is not an error;
// it returns (nil, nil).
func (s *Store) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("credstore: read: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("credstore: decode: %w", err)
	}
	return &cred, nil
}

// Save persists the credential, replacing any previous one. The file is
// written with owner-only permissions via a same-directory rename.
func (s *Store) Save(cred *Credential) error {
	if cred == nil {
		return errors.New("credstore: nil credential")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("credstore: mkdir: %w", err)
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("credstore: tmp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("credstore: rename: %w", err)
	}
	return nil
}

// Clear removes the persisted credential (logout). Removing an absent
// file succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credstore: clear: %w", err)
	}
	return nil
}
