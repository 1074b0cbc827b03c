// Package credential supplies the secret a connector authenticates with,
// behind a contract transports consume without caring whether the backing
// secret is a static password or a refreshable OAuth2 access token.
package credential

import "context"

// Kind names the two secret shapes a Store can advertise. A connector
// selects its SASL/LOGIN mechanism from this.
type Kind int

const (
	// KindPassword is a static, never-refreshed secret.
	KindPassword Kind = iota
	// KindBearer is a refreshable access token.
	KindBearer
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// Store is the contract a connector authenticates against: it advertises
// its Kind, hands back the currently cached secret with Current, and is
// told to fetch a new one with Refresh — called by the connector itself
// after an authentication challenge, never by the store on a timer.
type Store interface {
	Kind() Kind
	Current() string
	Refresh(ctx context.Context) error
}
