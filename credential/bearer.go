package credential

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/lemunozm/service-io/cache"
	"github.com/lemunozm/service-io/retry"
)

// TokenCache holds a live access token keyed by credential identity (the
// identity string given to NewBearerStore), so two independently constructed BearerStores for the same
// identity avoid a redundant refresh-token exchange against the
// authorization server. Share a Shared handle instead when the stores are
// in the same process (IMAP and SMTP connectors do) — this cache only
// helps across stores that were never cloned from one another.
type TokenCache = cache.Cache[string, oauth2.Token]

// BearerStore is a Store backed by an OAuth2 refresh-token exchange,
// grounded on secret_manager.rs's Oauth2Manager. The access token is
// cached in memory and only re-fetched on an explicit Refresh call — the
// engine-side connectors call Refresh themselves after an authentication
// challenge (§6), never on a timer.
type BearerStore struct {
	mu       sync.Mutex
	config   oauth2.Config
	refresh  *oauth2.Token
	token    oauth2.Token
	identity string
	cache    TokenCache
}

// NewBearerStore performs the initial token exchange and returns a ready
// Store. cache may be nil to skip the cross-instance token cache.
func NewBearerStore(
	ctx context.Context,
	config oauth2.Config,
	refreshToken string,
	identity string,
	tokenCache TokenCache,
) (*BearerStore, error) {
	b := &BearerStore{
		config:   config,
		refresh:  &oauth2.Token{RefreshToken: refreshToken},
		identity: identity,
		cache:    tokenCache,
	}

	if tokenCache != nil {
		if cached, ok := tokenCache.Get(identity); ok && cached.Valid() {
			b.token = cached

			return b, nil
		}
	}

	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *BearerStore) Kind() Kind { return KindBearer }

// Current returns the cached access token string.
func (b *BearerStore) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.token.AccessToken
}

// Refresh exchanges the refresh token for a new access token, retrying
// transient network failures with backoff, and updates the cross-instance
// cache if one was configured.
func (b *BearerStore) Refresh(ctx context.Context) error {
	source := b.config.TokenSource(ctx, b.refresh)

	var fresh *oauth2.Token

	err := retry.Do(ctx, func() error {
		tok, tokErr := source.Token()
		if tokErr != nil {
			return tokErr
		}

		fresh = tok

		return nil
	}, nil, retry.WithMaxAttempts(3), retry.WithTimeout(30*time.Second))
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.token = *fresh
	b.mu.Unlock()

	if b.cache != nil {
		b.cache.Add(b.identity, *fresh, time.Until(fresh.Expiry))
	}

	return nil
}
