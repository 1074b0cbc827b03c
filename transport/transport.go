// Package transport defines the three polymorphic roles the engine drives:
// a source that produces messages, a sink that consumes them, and a
// service that turns requests into responses. Each exposes a single Run
// entry point; the engine imposes no requirement on the underlying wire
// format, only on this boundary.
package transport

import (
	"context"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

// Input produces messages onto sender until it chooses to finish, or until
// sender is closed by the engine. A transport-internal failure is either
// handled inside Run or returned; the engine logs any returned error other
// than channel.ErrClosed as a finish with an error and carries on, as it
// does for a nil return.
type Input interface {
	Run(ctx context.Context, sender *channel.Sender[message.Message]) error
}

// Output drains messages from receiver until receiver is closed. Its
// completion is the engine's sole termination anchor (§4.5): the dispatch
// loop exits when this Run call returns, not when the input stops or any
// service stops.
type Output interface {
	Run(ctx context.Context, receiver *channel.Receiver[message.Message]) error
}

// Service consumes requests from receiver and emits zero or more responses
// on sender. It may spawn additional goroutines that share sender; those
// goroutines outlive Run and continue independently (the alarm service's
// delayed response is the reference example).
type Service interface {
	Run(ctx context.Context, receiver *channel.Receiver[message.Message], sender *channel.Sender[message.Message]) error
}

// The function adapter types below let a plain function satisfy Input,
// Output, or Service without a named type — the shape the engine's tests
// use. The bundled reference transports and services are named types.

// InputFunc adapts a function to Input.
type InputFunc func(ctx context.Context, sender *channel.Sender[message.Message]) error

func (f InputFunc) Run(ctx context.Context, sender *channel.Sender[message.Message]) error {
	return f(ctx, sender)
}

// OutputFunc adapts a function to Output.
type OutputFunc func(ctx context.Context, receiver *channel.Receiver[message.Message]) error

func (f OutputFunc) Run(ctx context.Context, receiver *channel.Receiver[message.Message]) error {
	return f(ctx, receiver)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, receiver *channel.Receiver[message.Message], sender *channel.Sender[message.Message]) error

func (f ServiceFunc) Run(
	ctx context.Context,
	receiver *channel.Receiver[message.Message],
	sender *channel.Sender[message.Message],
) error {
	return f(ctx, receiver, sender)
}
