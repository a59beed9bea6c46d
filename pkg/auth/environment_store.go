package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads the token from environment variables. It is
// read only and meant for CI and one-off runs.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func envToken() string {
	if v := os.Getenv("FIGSPRITE_TOKEN"); v != "" {
		return v
	}
	return os.Getenv("FIGMA_TOKEN")
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(label string) (*Token, error) {
	value := envToken()
	if value == "" {
		return nil, ErrTokenNotFound
	}
	if label == "" {
		label = DefaultLabel
	}
	return &Token{
		Label:        label,
		Value:        value,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Token, error) {
	token, err := e.Retrieve("")
	if err != nil {
		return []*Token{}, nil
	}
	return []*Token{token}, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(label string) bool {
	return envToken() != ""
}
