package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// promise is the single implementation of both Promise and Future. The
// zero-field channel is closed exactly once when the result is stored, which
// releases every waiter.
type promise[T any] struct {
	once   sync.Once
	done   chan struct{}
	result fn.Result[T]
}

// NewPromise creates an unresolved promise.
func NewPromise[T any]() Promise[T] {
	return &promise[T]{
		done: make(chan struct{}),
	}
}

// Complete implements Promise.
func (p *promise[T]) Complete(result fn.Result[T]) bool {
	completed := false
	p.once.Do(func() {
		p.result = result
		close(p.done)
		completed = true
	})

	return completed
}

// Future implements Promise.
func (p *promise[T]) Future() Future[T] {
	return p
}

// Await implements Future.
func (p *promise[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		return p.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// OnComplete implements Future. The callback runs on its own goroutine so a
// slow consumer can never stall the completing actor.
func (p *promise[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go func() {
		cb(p.Await(ctx))
	}()
}
