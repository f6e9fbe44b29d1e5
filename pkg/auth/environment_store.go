package auth

import (
	"os"
	"time"
)

const (
	envSessionID = "IGVISION_SESSION_ID"
	envCSRFToken = "IGVISION_CSRF_TOKEN"
	envUserAgent = "IGVISION_USER_AGENT"
	envUsername  = "IGVISION_USERNAME"
)

// EnvironmentStore reads a single read-only account from IGVISION_*
// environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates an EnvironmentStore
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported
func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account when username is empty or
// matches IGVISION_USERNAME
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv(envSessionID)
	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(envUsername)
	if name == "" {
		name = "default"
	}
	if username != "" && username != name {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:  name,
		SessionID: sessionID,
		CSRFToken: os.Getenv(envCSRFToken),
		UserAgent: os.Getenv(envUserAgent),
		// zero time so stored accounts of the same name take precedence
		LastModified: time.Time{},
	}, nil
}

// List returns the environment account when one is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the environment account is set and matches
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
