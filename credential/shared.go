package credential

import (
	"context"
	"sync"
)

// Shared wraps a single Store behind a mutex so the IMAP connector (reader)
// and the SMTP connector (writer) can hold independent handles to one
// credential without racing on Refresh. Grounded on secret_manager.rs's
// SecretHandler: Clone there is an Arc bump; here it is a shared pointer
// to the same mutex.
type Shared struct {
	mu    *sync.Mutex
	store Store
}

// NewShared wraps store for concurrent access.
func NewShared(store Store) *Shared {
	return &Shared{mu: &sync.Mutex{}, store: store}
}

// Clone returns a handle to the same underlying store and mutex.
func (s *Shared) Clone() *Shared {
	return &Shared{mu: s.mu, store: s.store}
}

func (s *Shared) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Kind()
}

func (s *Shared) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Current()
}

func (s *Shared) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Refresh(ctx)
}
