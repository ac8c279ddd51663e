package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements SessionStore using environment variables.
// Useful for CI and one-off runs where nothing should touch disk.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets the session from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookie := os.Getenv("DOUYIN_COOKIE")
	msToken := os.Getenv("DOUYIN_MS_TOKEN")
	userAgent := os.Getenv("DOUYIN_USER_AGENT")

	if cookie == "" {
		return nil, ErrSessionNotFound
	}

	// Environment variables carry no account name, so fall back to "default"
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		Cookie:       cookie,
		MsToken:      msToken,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment session exists
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("DOUYIN_COOKIE") != ""
}
