package credential

import "context"

// PasswordStore is a Store over a static, never-refreshed secret.
// Grounded on secret_manager.rs's PasswordManager: refresh is a no-op.
type PasswordStore struct {
	password string
}

// NewPasswordStore wraps a fixed password as a Store.
func NewPasswordStore(password string) *PasswordStore {
	return &PasswordStore{password: password}
}

func (p *PasswordStore) Kind() Kind { return KindPassword }

func (p *PasswordStore) Current() string { return p.password }

func (p *PasswordStore) Refresh(_ context.Context) error { return nil }
