package actor

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// envelope pairs a message with the promise awaiting its response. A nil
// promise marks a Tell (fire-and-forget) send.
type envelope[M Message, R any] struct {
	msg     M
	promise Promise[R]
}

// mailbox is the channel-backed message queue feeding an actor's process
// loop. Sends are safe from any goroutine; receiving happens only on the
// actor goroutine.
type mailbox[M Message, R any] struct {
	ch chan envelope[M, R]

	// closed is set before the channel is closed so senders can fail
	// fast without racing the close.
	closed atomic.Bool

	// mu guards sends against the channel closing mid-send: senders hold
	// the read lock, close takes the write lock.
	mu sync.RWMutex

	closeOnce sync.Once

	// actorCtx is the owning actor's lifecycle context. Its cancellation
	// aborts blocked sends.
	actorCtx context.Context
}

func newMailbox[M Message, R any](actorCtx context.Context,
	capacity int) *mailbox[M, R] {

	if capacity <= 0 {
		capacity = 1
	}

	return &mailbox[M, R]{
		ch:       make(chan envelope[M, R], capacity),
		actorCtx: actorCtx,
	}
}

// send enqueues an envelope, blocking until there is room, the caller's
// context is cancelled, or the actor terminates. It reports whether the
// envelope was accepted.
func (m *mailbox[M, R]) send(ctx context.Context, env envelope[M, R]) bool {
	if ctx.Err() != nil || m.actorCtx.Err() != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return false
	}

	select {
	case m.ch <- env:
		return true

	case <-ctx.Done():
		return false

	case <-m.actorCtx.Done():
		return false
	}
}

// receive iterates envelopes until the given context is cancelled or the
// mailbox is closed and empty. Only the actor goroutine may call this.
func (m *mailbox[M, R]) receive(ctx context.Context) iter.Seq[envelope[M, R]] {
	return func(yield func(envelope[M, R]) bool) {
		for {
			// Checking the context before selecting makes
			// shutdown deterministic: once cancelled, no further
			// envelope is yielded even if one is ready.
			if ctx.Err() != nil {
				return
			}

			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}
}

// close prevents further sends. Safe to call multiple times.
func (m *mailbox[M, R]) close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.closed.Store(true)
		close(m.ch)
	})
}

// drain yields envelopes left behind after close, without blocking.
func (m *mailbox[M, R]) drain() iter.Seq[envelope[M, R]] {
	return func(yield func(envelope[M, R]) bool) {
		if !m.closed.Load() {
			return
		}

		for {
			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}

			default:
				return
			}
		}
	}
}
