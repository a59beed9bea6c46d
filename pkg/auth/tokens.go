// Package auth stores Figma personal access tokens. Storage backends
// are tried in order: system keychain, encrypted file, environment.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Token is one stored Figma personal access token. Label lets users
// keep tokens for several Figma accounts side by side.
type Token struct {
	Label        string    `json:"label"`
	Value        string    `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface every storage backend implements.
type TokenStore interface {
	Store(token *Token) error
	Retrieve(label string) (*Token, error)
	List() ([]*Token, error)
	Delete(label string) error
	Exists(label string) bool
}

// DefaultLabel is used when the user does not name a token.
const DefaultLabel = "default"

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Manager tries a chain of token stores with fallback.
type Manager struct {
	stores []TokenStore
}

// NewManager builds the store chain: keychain when available, then the
// encrypted file, then environment variables as a read-only last resort.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a Manager over an explicit chain, for tests.
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token in the first backend that accepts it.
func (m *Manager) Store(token *Token) error {
	if token == nil || token.Value == "" {
		return ErrInvalidToken
	}
	if token.Label == "" {
		token.Label = DefaultLabel
	}
	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve returns the token from the first backend that has it.
func (m *Manager) Retrieve(label string) (*Token, error) {
	if label == "" {
		label = DefaultLabel
	}
	for _, store := range m.stores {
		if token, err := store.Retrieve(label); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, label)
}

// List merges tokens from every backend, newest wins per label.
func (m *Manager) List() ([]*Token, error) {
	byLabel := make(map[string]*Token)
	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, token := range tokens {
			existing, ok := byLabel[token.Label]
			if !ok || token.LastModified.After(existing.LastModified) {
				byLabel[token.Label] = token
			}
		}
	}

	var result []*Token
	for _, token := range byLabel {
		result = append(result, token)
	}
	return result, nil
}

// Delete removes the token from every backend that holds it.
func (m *Manager) Delete(label string) error {
	if label == "" {
		label = DefaultLabel
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(label); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrStoreUnavailable) && !errors.Is(lastErr, ErrTokenNotFound) {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrTokenNotFound, label)
}

// configDir returns the per-user configuration directory.
func configDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "figsprite")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "figsprite")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "figsprite")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "figsprite")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// MaskToken hides all but the edges of a token for display.
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
