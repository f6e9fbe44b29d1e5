package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "igvision"
	keyringPrefix  = "instagram_"
	// keyringIndex lists stored usernames; the keyring API cannot enumerate
	keyringIndex = "accounts"
)

// KeyringStore keeps accounts in the system keychain
type KeyringStore struct{}

// NewKeyringStore probes the keychain and fails when it is unusable
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "test_availability"
	if err := keyring.Set(keyringService, probe, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)

	return &KeyringStore{}, nil
}

// Store implements CredentialStore
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+account.Username, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	names := k.index()
	names[account.Username] = true
	return k.saveIndex(names)
}

// Retrieve implements CredentialStore
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// List implements CredentialStore using the username index
func (k *KeyringStore) List() ([]*Account, error) {
	names := make([]string, 0)
	for name := range k.index() {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]*Account, 0, len(names))
	for _, name := range names {
		if account, err := k.Retrieve(name); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete implements CredentialStore
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+username); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	names := k.index()
	delete(names, username)
	return k.saveIndex(names)
}

// Exists implements CredentialStore
func (k *KeyringStore) Exists(username string) bool {
	if username == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+username)
	return err == nil
}

func (k *KeyringStore) index() map[string]bool {
	names := make(map[string]bool)
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		return names
	}
	var list []string
	if json.Unmarshal([]byte(data), &list) == nil {
		for _, name := range list {
			names[name] = true
		}
	}
	return names
}

func (k *KeyringStore) saveIndex(names map[string]bool) error {
	list := make([]string, 0, len(names))
	for name := range names {
		list = append(list, name)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := keyring.Set(keyringService, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
