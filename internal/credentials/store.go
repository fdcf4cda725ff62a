// Package credentials persists the opaque session token across process restarts.
//
// The store holds exactly one token in a JSON file under the user's config
// directory. It never inspects the token's contents.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
)

type storedToken struct {
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store is a file-backed token store.
type Store struct {
	path  string
	clock clockwork.Clock
}

// NewStore creates a store writing to the given file path.
func NewStore(path string, clock clockwork.Clock) *Store {
	return &Store{path: path, clock: clock}
}

// Save persists the token, creating the parent directory if needed.
// The file is readable by the owner only.
func (s *Store) Save(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store empty token")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(storedToken{
		AccessToken: token,
		SavedAt:     s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load returns the persisted token, or domain.ErrNoToken when none is stored.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("failed to decode token file: %w", err)
	}
	if stored.AccessToken == "" {
		return "", domain.ErrNoToken
	}
	return stored.AccessToken, nil
}

// Clear removes the persisted token. Safe to call when none is stored.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
