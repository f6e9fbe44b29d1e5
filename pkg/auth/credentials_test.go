package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igvision/pkg/config"
)

func TestManagerStoreRetrieveDelete(t *testing.T) {
	store := newMemStore()
	m := NewManagerWithStores(store)

	account := &Account{Username: "alice", SessionID: "sess_1234567890", CSRFToken: "csrf_1234567890"}
	require.NoError(t, m.Store(account))
	assert.False(t, account.LastModified.IsZero())

	got, err := m.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "sess_1234567890", got.SessionID)

	require.NoError(t, m.Delete("alice"))
	_, err = m.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, m.Delete("alice"), ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	m := NewManagerWithStores(newMemStore())

	assert.Error(t, m.Store(nil))
	assert.Error(t, m.Store(&Account{SessionID: "x"}))
	assert.Error(t, m.Store(&Account{Username: "alice"}))
}

func TestManagerStoreFallsThrough(t *testing.T) {
	broken := newMemStore()
	broken.storeErr = errors.New("locked")
	working := newMemStore()
	m := NewManagerWithStores(broken, working)

	require.NoError(t, m.Store(&Account{Username: "alice", SessionID: "s"}))
	assert.True(t, working.Exists("alice"))
	assert.False(t, broken.Exists("alice"))

	working.storeErr = errors.New("full")
	err := m.Store(&Account{Username: "bob", SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")

	assert.ErrorIs(t, NewManagerWithStores().Store(&Account{Username: "bob", SessionID: "s"}), ErrStoreUnavailable)
}

func TestManagerListMostRecentWins(t *testing.T) {
	older := newMemStore()
	newer := newMemStore()
	failing := newMemStore()
	failing.listErr = errors.New("unavailable")

	now := time.Now()
	older.accounts["alice"] = Account{Username: "alice", SessionID: "old", LastModified: now.Add(-time.Hour)}
	newer.accounts["alice"] = Account{Username: "alice", SessionID: "new", LastModified: now}
	older.accounts["bob"] = Account{Username: "bob", SessionID: "b", LastModified: now.Add(-2 * time.Hour)}

	m := NewManagerWithStores(older, failing, newer)
	accounts, err := m.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "new", accounts[0].SessionID)
	assert.Equal(t, "bob", accounts[1].Username)
}

func TestManagerResolve(t *testing.T) {
	store := newMemStore()
	m := NewManagerWithStores(store)

	account, err := m.Resolve("")
	require.NoError(t, err)
	assert.Nil(t, account)

	_, err = m.Resolve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	now := time.Now()
	store.accounts["alice"] = Account{Username: "alice", SessionID: "a", LastModified: now.Add(-time.Minute)}
	store.accounts["bob"] = Account{Username: "bob", SessionID: "b", LastModified: now}

	account, err = m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "bob", account.Username)

	account, err = m.Resolve("alice")
	require.NoError(t, err)
	assert.Equal(t, "a", account.SessionID)
}

func TestAccountApplyTo(t *testing.T) {
	account := &Account{Username: "alice", SessionID: "sess", CSRFToken: "csrf", UserAgent: "UA/1"}

	cfg := config.DefaultConfig()
	account.ApplyTo(&cfg.Instagram)
	assert.Equal(t, "sess", cfg.Instagram.SessionID)
	assert.Equal(t, "csrf", cfg.Instagram.CSRFToken)
	assert.Equal(t, "UA/1", cfg.Instagram.UserAgent)

	explicit := config.DefaultConfig()
	explicit.Instagram.SessionID = "from-flags"
	account.ApplyTo(&explicit.Instagram)
	assert.Equal(t, "from-flags", explicit.Instagram.SessionID)
	assert.Empty(t, explicit.Instagram.CSRFToken)

	var none *Account
	none.ApplyTo(&cfg.Instagram)
	assert.Equal(t, "sess", cfg.Instagram.SessionID)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Username: "alice", SessionID: "1234567890abcdef", CSRFToken: "short"}

	masked := SanitizeAccount(account)
	assert.Equal(t, "alice", masked.Username)
	assert.Equal(t, "1234...cdef", masked.SessionID)
	assert.Equal(t, "********", masked.CSRFToken)
	assert.Equal(t, "1234567890abcdef", account.SessionID)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "********", MaskSecret("12345678"))
	assert.Equal(t, "1234...6789", MaskSecret("123456789"))
}

func TestConfigDirHonoursXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, base+"/igvision", dir)
	assert.DirExists(t, dir)
}
