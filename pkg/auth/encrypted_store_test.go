package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEncryptedStore(t *testing.T) (*EncryptedFileStore, string) {
	t.Helper()
	t.Setenv(envPassphrase, "")
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	return store, path
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	store, path := newEncryptedStore(t)

	_, err := store.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Username: "alice", SessionID: "secret-session"}))
	require.NoError(t, store.Store(&Account{Username: "bob", SessionID: "other"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "secret-session")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "secret-session", got.SessionID)

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "bob", accounts[1].Username)
}

func TestEncryptedFileStoreReopenWithGeneratedPassphrase(t *testing.T) {
	store, path := newEncryptedStore(t)
	require.NoError(t, store.Store(&Account{Username: "alice", SessionID: "s"}))
	assert.FileExists(t, filepath.Join(filepath.Dir(path), passphraseFile))

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.Exists("alice"))
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	t.Setenv(envPassphrase, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Username: "alice", SessionID: "s"}))

	t.Setenv(envPassphrase, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEncryptedFileStoreDeleteLastRemovesFile(t *testing.T) {
	store, path := newEncryptedStore(t)
	require.NoError(t, store.Store(&Account{Username: "alice", SessionID: "s"}))
	require.NoError(t, store.Store(&Account{Username: "bob", SessionID: "s"}))

	require.NoError(t, store.Delete("alice"))
	assert.FileExists(t, path)
	assert.False(t, store.Exists("alice"))

	require.NoError(t, store.Delete("bob"))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, store.Delete("bob"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreRejectsInvalid(t *testing.T) {
	store, _ := newEncryptedStore(t)
	assert.ErrorIs(t, store.Store(&Account{}), ErrInvalidCredentials)
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, store.Delete(""), ErrInvalidCredentials)
}
