package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotAuthenticated means no usable token is on disk. Callers treat it as
// "go to login", never as a crash.
var ErrNotAuthenticated = errors.New("not authenticated")

// Credentials are what the client persists between runs.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// CredentialStore persists credentials as a JSON file, the desktop analog
// of the browser's local storage.
type CredentialStore struct {
	path string
}

// NewCredentialStore uses the given file path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// DefaultCredentialPath places the file under the user's config directory.
func DefaultCredentialPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "chatclient", "credentials.json"), nil
}

// Load reads the persisted credentials. A missing file or empty token is
// ErrNotAuthenticated.
func (c *CredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNotAuthenticated
	}
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("corrupt credential file %s: %w", c.path, err)
	}
	if creds.Token == "" {
		return Credentials{}, ErrNotAuthenticated
	}
	return creds, nil
}

// Save writes the credentials, creating the parent directory as needed.
func (c *CredentialStore) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// Clear removes the persisted credentials; clearing an empty store is fine.
func (c *CredentialStore) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Token is an api.TokenSource: it never fails, an unreadable or missing
// file just means outgoing requests carry no Authorization header.
func (c *CredentialStore) Token() string {
	creds, err := c.Load()
	if err != nil {
		return ""
	}
	return creds.Token
}

// Authenticated reports whether a usable token is persisted.
func (c *CredentialStore) Authenticated() bool {
	_, err := c.Load()
	return err == nil
}
