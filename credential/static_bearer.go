package credential

import "context"

// StaticBearerStore wraps an access token obtained out of band (e.g. a
// CLI flag) with no way to refresh it. Refresh is a no-op: once the token
// expires the operator must restart the process with a new one. Used by
// the cmd/ binaries' --access-token flag, which mirrors the original
// email_to_stdout example's one-shot OAuth2 token.
type StaticBearerStore struct {
	token string
}

// NewStaticBearerStore wraps token as a non-refreshable bearer credential.
func NewStaticBearerStore(token string) *StaticBearerStore {
	return &StaticBearerStore{token: token}
}

func (s *StaticBearerStore) Kind() Kind { return KindBearer }

func (s *StaticBearerStore) Current() string { return s.token }

func (s *StaticBearerStore) Refresh(_ context.Context) error { return nil }
