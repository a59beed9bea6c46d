package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := NewMockStore()
	m := NewManagerWithStores(store)

	err := m.Store(&Token{Value: "figd_secret"})
	require.NoError(t, err)

	token, err := m.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, token.Label)
	assert.Equal(t, "figd_secret", token.Value)
	assert.False(t, token.LastModified.IsZero())
}

func TestManagerRejectsEmptyToken(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())
	assert.ErrorIs(t, m.Store(&Token{Value: ""}), ErrInvalidToken)
	assert.ErrorIs(t, m.Store(nil), ErrInvalidToken)
}

func TestManagerFallbackChain(t *testing.T) {
	broken := NewMockStore()
	broken.FailStore = true
	working := NewMockStore()
	m := NewManagerWithStores(broken, working)

	require.NoError(t, m.Store(&Token{Label: "work", Value: "figd_abc"}))

	assert.False(t, broken.Exists("work"))
	assert.True(t, working.Exists("work"))

	token, err := m.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "figd_abc", token.Value)
}

func TestManagerDelete(t *testing.T) {
	store := NewMockStore()
	m := NewManagerWithStores(store)

	require.NoError(t, m.Store(&Token{Label: "old", Value: "figd_x"}))
	require.NoError(t, m.Delete("old"))
	assert.False(t, store.Exists("old"))

	err := m.Delete("old")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestEncryptedFileStoreRoundtrip(t *testing.T) {
	t.Setenv("FIGSPRITE_PASSPHRASE", "test-passphrase")

	path := filepath.Join(t.TempDir(), "tokens.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Token{Label: "default", Value: "figd_roundtrip"}))

	// A fresh store instance with the same passphrase reads it back.
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	token, err := reopened.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "figd_roundtrip", token.Value)

	tokens, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	require.NoError(t, reopened.Delete("default"))
	_, err = reopened.Retrieve("default")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")

	t.Setenv("FIGSPRITE_PASSPHRASE", "correct")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Token{Label: "default", Value: "figd_v"}))

	t.Setenv("FIGSPRITE_PASSPHRASE", "wrong")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = other.Retrieve("default")
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv("FIGSPRITE_TOKEN", "")
	t.Setenv("FIGMA_TOKEN", "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.False(t, store.Exists(""))

	t.Setenv("FIGMA_TOKEN", "figd_from_env")
	token, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "figd_from_env", token.Value)

	// FIGSPRITE_TOKEN takes precedence over FIGMA_TOKEN.
	t.Setenv("FIGSPRITE_TOKEN", "figd_override")
	token, err = store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "figd_override", token.Value)

	assert.ErrorIs(t, store.Store(&Token{Label: "x", Value: "y"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", MaskToken("short"))
	assert.Equal(t, "figd...wxyz", MaskToken("figd_1234567890wxyz"))
}
