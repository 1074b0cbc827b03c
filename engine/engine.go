// Package engine is the routing runtime: one input transport, one output
// transport, and a named set of services, wired together by bounded
// channels. It owns every spawned worker and every channel sender; see
// Engine.Run for the startup sequence and the dispatch loop.
package engine

import (
	"context"
	"errors"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/registry"
	"github.com/lemunozm/service-io/transport"
)

// Capacity is the fixed buffer size for the input queue, the shared output
// queue, and every per-service queue.
const Capacity = 32

// MapFunc transforms a message before routing.
type MapFunc func(message.Message) message.Message

// FilterFunc decides whether a mapped message continues to routing.
// Returning false drops the message silently (logged at trace level).
type FilterFunc func(message.Message) bool

// Engine is configured with a builder, then started with Run, which
// blocks until the output supervisor completes.
type Engine struct {
	input       transport.Input
	output      transport.Output
	mapInput    MapFunc
	filterInput FilterFunc

	order         []string
	registrations map[string]registry.Registration
}

// New returns an unconfigured Engine. Input and Output are mandatory
// before Run.
func New() *Engine {
	return &Engine{
		registrations: make(map[string]registry.Registration),
	}
}

// Input sets the single InputTransport. Mandatory.
func (e *Engine) Input(t transport.Input) *Engine {
	e.input = t

	return e
}

// Output sets the single OutputTransport. Mandatory.
func (e *Engine) Output(t transport.Output) *Engine {
	e.output = t

	return e
}

// MapInput sets an optional pure transform applied to every message before
// routing.
func (e *Engine) MapInput(fn MapFunc) *Engine {
	e.mapInput = fn

	return e
}

// FilterInput sets an optional predicate applied after MapInput; a false
// result drops the message silently.
func (e *Engine) FilterInput(fn FilterFunc) *Engine {
	e.filterInput = fn

	return e
}

// AddService registers a service with no allow-list. Registering the same
// name twice overwrites the previous registration — last call wins,
// resolved at Run() build time — matching the plain-map-assignment idiom
// used throughout this codebase.
func (e *Engine) AddService(name string, svc transport.Service) *Engine {
	return e.AddServiceFor(name, svc, nil)
}

// AddServiceFor registers a service gated by a user allow-list. A nil or
// empty allowList admits everyone, same as AddService.
func (e *Engine) AddServiceFor(name string, svc transport.Service, allowList []string) *Engine {
	if _, exists := e.registrations[name]; !exists {
		e.order = append(e.order, name)
	}

	var allowed map[string]struct{}
	if len(allowList) > 0 {
		allowed = make(map[string]struct{}, len(allowList))
		for _, user := range allowList {
			allowed[user] = struct{}{}
		}
	}

	e.registrations[name] = registry.Registration{
		Name:      name,
		Service:   svc,
		AllowList: allowed,
	}

	return e
}

// Run starts every worker and blocks until the output supervisor
// completes — the engine's sole termination anchor (§4.5). It always
// returns once termination is reached; ctx cancellation forces an earlier
// return by unblocking every worker through the same sender-drop path a
// natural shutdown uses.
func (e *Engine) Run(ctx context.Context) error {
	if e.input == nil || e.output == nil {
		return errors.New("engine: input and output transports are mandatory")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(runCtx)

	inSender, inReceiver := channel.New[message.Message](Capacity)
	group.Go(func() error {
		defer inSender.Close()
		runSupervised("input", func() error { return e.input.Run(gctx, inSender) })

		return nil
	})

	outSender, outReceiver := channel.New[message.Message](Capacity)

	outputDone := make(chan struct{})

	group.Go(func() error {
		defer close(outputDone)
		runSupervised("output", func() error { return e.output.Run(gctx, outReceiver) })

		return nil
	})

	handles := make(map[string]*registry.Handle, len(e.order))

	for _, name := range e.order {
		reg := e.registrations[name]
		svcSender, svcReceiver := channel.New[message.Message](Capacity)
		svcOutSender := outSender.Clone()
		handles[name] = registry.NewHandle(reg, svcSender)

		group.Go(func() error {
			defer svcOutSender.Close()
			runSupervised(reg.Name, func() error { return reg.Service.Run(gctx, svcReceiver, svcOutSender) })

			return nil
		})
	}

	// Drop the engine's own retained copy: required so the output
	// receiver observes ErrClosed once every service has finished.
	outSender.Close()

	runErr := e.dispatch(runCtx, inReceiver, outputDone, handles)

	// Force every remaining worker to unblock: cancel propagates to any
	// context-aware Run, and closing every service's inbound sender
	// unblocks a worker sitting in a blocking Recv regardless.
	cancel()

	for _, h := range handles {
		h.Inbound.Close()
	}

	_ = group.Wait()

	return runErr
}

// dispatch is the engine's single logical task: read the input queue,
// optionally map/filter, route by exact service_name match, and return as
// soon as the output supervisor signals completion.
func (e *Engine) dispatch(
	ctx context.Context,
	inReceiver *channel.Receiver[message.Message],
	outputDone <-chan struct{},
	handles map[string]*registry.Handle,
) error {
	for {
		select {
		case msg := <-inReceiver.Chan():
			e.route(ctx, msg, handles)

		case <-inReceiver.Closed():
			e.drainRemaining(ctx, inReceiver, handles)

			select {
			case <-outputDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-outputDone:
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drainRemaining flushes whatever is already buffered in the input queue
// once its Closed signal has fired, preserving FIFO order before the
// dispatch loop stops reading from it.
func (e *Engine) drainRemaining(
	ctx context.Context,
	inReceiver *channel.Receiver[message.Message],
	handles map[string]*registry.Handle,
) {
	for {
		select {
		case msg := <-inReceiver.Chan():
			e.route(ctx, msg, handles)
		default:
			return
		}
	}
}

func (e *Engine) route(ctx context.Context, msg message.Message, handles map[string]*registry.Handle) {
	if e.mapInput != nil {
		msg = e.mapInput(msg)
	}

	if e.filterInput != nil && !e.filterInput(msg) {
		logger.Trace("filtered", "service", msg.ServiceName, "user", msg.User)

		return
	}

	handle, ok := handles[msg.ServiceName]
	if !ok {
		logger.Trace("unknown service", "service", msg.ServiceName)

		return
	}

	handle.ProcessMessage(ctx, msg)
}

// runSupervised runs fn, recovering a panic so a single worker's failure
// never unwinds into the engine, and logs the worker's terminal state:
// finished, disconnected (ErrClosed), or panicked.
func runSupervised(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panicked", "worker", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch err := fn(); {
	case err == nil:
		logger.Info("finished", "worker", name)
	case errors.Is(err, channel.ErrClosed):
		logger.Info("disconnected", "worker", name)
	default:
		logger.Warn("finished", "worker", name, "error", err)
	}
}
