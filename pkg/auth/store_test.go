package auth

import (
	"sync"
)

// memStore is an in-memory CredentialStore with error injection
type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account

	storeErr error
	listErr  error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]Account)}
}

func (m *memStore) Store(account *Account) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Username] = *account
	return nil
}

func (m *memStore) Retrieve(username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (m *memStore) List() ([]*Account, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Account
	for _, account := range m.accounts {
		a := account
		out = append(out, &a)
	}
	return out, nil
}

func (m *memStore) Delete(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *memStore) Exists(username string) bool {
	_, err := m.Retrieve(username)
	return err == nil
}
