package credential

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/lemunozm/service-io/cache"
)

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestNewBearerStoreFetchesInitialToken(t *testing.T) {
	srv := tokenServer(t, "token-v1")

	cfg := oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL},
	}

	store, err := NewBearerStore(t.Context(), cfg, "refresh-token", "user@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, KindBearer, store.Kind())
	assert.Equal(t, "token-v1", store.Current())
}

func TestBearerStoreRefreshFetchesNewToken(t *testing.T) {
	srv := tokenServer(t, "token-v1")

	cfg := oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL},
	}

	store, err := NewBearerStore(t.Context(), cfg, "refresh-token", "user@example.com", nil)
	require.NoError(t, err)

	srv.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-v2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	require.NoError(t, store.Refresh(t.Context()))
	assert.Equal(t, "token-v2", store.Current())
}

func TestNewBearerStoreUsesTokenCacheWhenValid(t *testing.T) {
	tokenCache := cache.NewBasic[string, oauth2.Token](t.Context())
	tokenCache.Add("user@example.com", oauth2.Token{AccessToken: "cached", Expiry: time.Now().Add(time.Hour)}, time.Hour)

	store, err := NewBearerStore(t.Context(), oauth2.Config{}, "refresh-token", "user@example.com", tokenCache)
	require.NoError(t, err)
	assert.Equal(t, "cached", store.Current())
}
