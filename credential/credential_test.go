package credential

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordStoreKindAndCurrent(t *testing.T) {
	store := NewPasswordStore("s3cret")

	assert.Equal(t, KindPassword, store.Kind())
	assert.Equal(t, "s3cret", store.Current())
	assert.NoError(t, store.Refresh(t.Context()))
	assert.Equal(t, "s3cret", store.Current(), "refresh is a no-op for a static password")
}

// fakeStore lets Shared be exercised without a live OAuth2 exchange.
type fakeStore struct {
	mu        sync.Mutex
	current   string
	refreshes int
}

func (f *fakeStore) Kind() Kind { return KindBearer }

func (f *fakeStore) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.current
}

func (f *fakeStore) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	f.current = "refreshed"

	return nil
}

func TestSharedClonesSeeSameUnderlyingStore(t *testing.T) {
	store := &fakeStore{current: "initial"}
	shared := NewShared(store)
	clone := shared.Clone()

	assert.Equal(t, "initial", shared.Current())
	assert.Equal(t, "initial", clone.Current())

	require.NoError(t, clone.Refresh(t.Context()))

	assert.Equal(t, "refreshed", shared.Current(), "clones share the same underlying store")
	assert.Equal(t, 1, store.refreshes)
}
