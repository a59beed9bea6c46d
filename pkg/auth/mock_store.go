package auth

import "sync"

// MockStore is an in-memory TokenStore for tests.
type MockStore struct {
	mu     sync.RWMutex
	tokens map[string]Token

	// FailStore makes Store return ErrStoreUnavailable, to exercise
	// the manager's fallback chain.
	FailStore bool
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]Token)}
}

func (m *MockStore) Store(token *Token) error {
	if m.FailStore {
		return ErrStoreUnavailable
	}
	if token == nil || token.Label == "" {
		return ErrInvalidToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Label] = *token
	return nil
}

func (m *MockStore) Retrieve(label string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[label]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

func (m *MockStore) List() ([]*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Token
	for _, token := range m.tokens {
		t := token
		result = append(result, &t)
	}
	return result, nil
}

func (m *MockStore) Delete(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[label]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, label)
	return nil
}

func (m *MockStore) Exists(label string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tokens[label]
	return ok
}
