// Package registry holds the engine's per-service bookkeeping: the
// registered name, the service value the engine runs (a single value, not
// a factory: every Engine.Run reuses it), optional user allow-list, and
// the live inbound queue handle used to route a message to that worker.
package registry

import (
	"context"
	"strings"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/transport"
)

// Registration is recorded at configuration time, before the engine's
// run() starts any goroutine. Two registrations sharing the same Name
// overwrite each other in the engine's map (last one wins — see
// Engine.AddService).
type Registration struct {
	Name      string
	Service   transport.Service
	AllowList map[string]struct{}
}

// Handle is the live counterpart of a Registration, created at run()
// start: the allow-list carries over unchanged, and Inbound is the
// sender half of this service's dedicated queue. The engine owns Inbound;
// the spawned worker owns the matching receiver.
type Handle struct {
	Name      string
	AllowList map[string]struct{}
	Inbound   *channel.Sender[message.Message]
}

// NewHandle builds a Handle from a registration and the sender end of the
// queue the engine just created for it.
func NewHandle(reg Registration, inbound *channel.Sender[message.Message]) *Handle {
	return &Handle{
		Name:      reg.Name,
		AllowList: reg.AllowList,
		Inbound:   inbound,
	}
}

// Allowed reports whether user may reach this service. An absent
// allow-list admits everyone.
func (h *Handle) Allowed(user string) bool {
	if h.AllowList == nil {
		return true
	}

	_, ok := h.AllowList[user]

	return ok
}

// ProcessMessage routes msg to this service's inbound queue, applying the
// allow-list gate first. It never returns an error to the caller. A user
// outside the allow-list is dropped with a "not allowed" warning.
// Otherwise it blocks until the message is enqueued (backpressure from a
// full queue) and logs "processing"; if the send fails because the
// inbound sender has been closed or ctx is done, the message is dropped
// with a "removed service" warning. A worker that has exited is not
// detected here: its queue keeps accepting messages until it is full, and
// the send then blocks until ctx is done.
func (h *Handle) ProcessMessage(ctx context.Context, msg message.Message) {
	if !h.Allowed(msg.User) {
		logger.Warn("not allowed", "service", h.Name, "user", msg.User)

		return
	}

	if err := h.Inbound.Send(ctx, msg); err != nil {
		logger.Warn("removed service", "service", h.Name, "user", msg.User, "error", err)

		return
	}

	logger.Info("processing", "service", h.Name, "user", msg.User, "args", strings.Join(msg.Args, " "))
}
