// Package auth stores the Instagram session cookies igvision logs in with.
//
// Credentials are optional: without them public profiles are fetched
// anonymously. When present they are looked up in the system keyring, then
// an encrypted file in the igvision config directory, then the
// IGVISION_SESSION_ID and IGVISION_CSRF_TOKEN environment variables.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"igvision/pkg/config"
)

// Account holds the session cookies of one Instagram login
type Account struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ApplyTo copies the account's cookies into settings that do not already
// carry a session, so explicit configuration wins
func (a *Account) ApplyTo(cfg *config.InstagramConfig) {
	if a == nil || cfg.SessionID != "" {
		return
	}
	cfg.SessionID = a.SessionID
	cfg.CSRFToken = a.CSRFToken
	if a.UserAgent != "" {
		cfg.UserAgent = a.UserAgent
	}
}

// CredentialStore persists accounts
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager queries several stores in priority order
type Manager struct {
	stores []CredentialStore
}

// NewManager sets up the keyring (when available), the encrypted file store
// in dir and the environment store
func NewManager(dir string) (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a Manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials in the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return errors.New("username is required")
	}
	if account.SessionID == "" {
		return errors.New("session ID is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
}

// Resolve returns the account to log in with: the named one, or the most
// recently modified one when username is empty. No stored account is not
// an error; it yields nil.
func (m *Manager) Resolve(username string) (*Account, error) {
	if username != "" {
		return m.Retrieve(username)
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// List returns all accounts across stores, newest first. When several stores
// hold the same username the most recent copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].LastModified.After(result[j].LastModified)
		}
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// Delete removes credentials from every store holding them
func (m *Manager) Delete(username string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
	}
	return nil
}

// ConfigDir returns the igvision configuration directory, creating it
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		var err error
		base, err = os.UserConfigDir()
		if err != nil {
			return "", err
		}
	}

	dir := filepath.Join(base, "igvision")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy of the account with cookies masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		SessionID:    MaskSecret(account.SessionID),
		CSRFToken:    MaskSecret(account.CSRFToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// MaskSecret keeps the first and last four characters of a cookie value.
// Short values are hidden completely; an unset value stays empty.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
