package auth

import (
	"os"
	"time"
)

// EnvironmentStore exposes a token from VKSCRAPER_TOKEN, or the older bare
// "token" variable, as the default account. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := envToken()
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = DefaultAccount
	}
	return &Account{
		Name:        name,
		AccessToken: token,
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	account.LastModified = time.Time{}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return envToken() != ""
}

func envToken() string {
	if token := os.Getenv("VKSCRAPER_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("token")
}
