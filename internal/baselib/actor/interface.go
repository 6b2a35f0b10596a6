// Package actor provides a small actor runtime: behaviors that process
// messages one at a time on a dedicated goroutine, typed references for
// fire-and-forget (Tell) and request-response (Ask) interactions, and a
// system that owns actor lifecycles and performs deterministic shutdown.
//
// Confining all state mutation to the actor's single goroutine is the
// concurrency model used throughout this codebase: callers on arbitrary
// goroutines enqueue messages, and the behavior observes them serially.
package actor

import (
	"context"
	"errors"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrTerminated indicates that an operation failed because the target actor
// has stopped or is shutting down.
var ErrTerminated = errors.New("actor terminated")

// Message is a sealed interface for actor messages. Only types that embed
// BaseMessage can satisfy it, which keeps message unions closed.
type Message interface {
	// messageMarker seals the interface.
	messageMarker()

	// MessageType returns a short type name used in log output.
	MessageType() string
}

// BaseMessage is embedded by message types defined outside this package to
// satisfy the sealed Message interface.
type BaseMessage struct{}

func (BaseMessage) messageMarker() {}

// Future is the consumer side of an asynchronous result.
type Future[T any] interface {
	// Await blocks until the result is available or the context is
	// cancelled, then returns it.
	Await(ctx context.Context) fn.Result[T]

	// OnComplete registers a callback invoked once the result is ready.
	// If the context is cancelled first, the callback receives the
	// context's error instead.
	OnComplete(ctx context.Context, cb func(fn.Result[T]))
}

// Promise is the producer side of a Future. Completing a promise at most
// once resolves the associated future for all waiters.
type Promise[T any] interface {
	// Future returns the Future resolved by this promise.
	Future() Future[T]

	// Complete sets the result. It returns true if this call was the
	// first to complete the promise.
	Complete(result fn.Result[T]) bool
}

// BaseRef is the non-generic part of an actor reference.
type BaseRef interface {
	// ID returns the unique identifier of the referenced actor.
	ID() string
}

// TellOnlyRef is a capability-restricted reference supporting only
// fire-and-forget sends.
type TellOnlyRef[M Message] interface {
	BaseRef

	// Tell enqueues a message without waiting for a response. The message
	// may be dropped if the caller's context is cancelled or the actor
	// has terminated.
	Tell(ctx context.Context, msg M)
}

// Ref is a full actor reference supporting both Tell and Ask.
type Ref[M Message, R any] interface {
	TellOnlyRef[M]

	// Ask enqueues a message and returns a Future for the behavior's
	// response.
	Ask(ctx context.Context, msg M) Future[R]
}

// Behavior defines how an actor reacts to messages. Receive is always
// invoked from the actor's own goroutine, so implementations need no
// internal locking for state they own.
type Behavior[M Message, R any] interface {
	Receive(ctx context.Context, msg M) fn.Result[R]
}

// BehaviorFunc adapts a plain function to the Behavior interface.
type BehaviorFunc[M Message, R any] func(context.Context, M) fn.Result[R]

// Receive implements Behavior.
func (f BehaviorFunc[M, R]) Receive(ctx context.Context,
	msg M) fn.Result[R] {

	return f(ctx, msg)
}
