package actor

import (
	"context"
	"sync"
)

// stopper lets the system hold heterogeneous actors in one map.
type stopper interface {
	Stop()
}

// System owns a set of actors and shuts them down deterministically: after
// Shutdown returns successfully, every actor goroutine has exited.
type System struct {
	mu     sync.RWMutex
	actors map[string]stopper

	ctx    context.Context
	cancel context.CancelFunc

	// wg counts running actor goroutines.
	wg sync.WaitGroup
}

// NewSystem creates an empty actor system.
func NewSystem() *System {
	ctx, cancel := context.WithCancel(context.Background())

	return &System{
		actors: make(map[string]stopper),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SpawnOption configures Spawn.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	mailboxSize int
}

// WithMailboxSize overrides the default mailbox capacity for the spawned
// actor.
func WithMailboxSize(n int) SpawnOption {
	return func(cfg *spawnConfig) {
		cfg.mailboxSize = n
	}
}

// defaultMailboxSize is the mailbox capacity used when no option overrides
// it.
const defaultMailboxSize = 100

// Spawn creates and starts an actor owned by the system, returning its
// reference. Spawning on a system that is already shutting down yields a
// reference whose operations fail with ErrTerminated.
func Spawn[M Message, R any](s *System, id string, behavior Behavior[M, R],
	opts ...SpawnOption) Ref[M, R] {

	cfg := spawnConfig{mailboxSize: defaultMailboxSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := New(Config[M, R]{
		ID:          id,
		Behavior:    behavior,
		MailboxSize: cfg.mailboxSize,
		Wg:          &s.wg,
	})

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()

		// Hand back a dead reference rather than nil so callers fail
		// with ErrTerminated instead of panicking.
		a.Stop()
		return a.Ref()
	}
	s.actors[id] = a
	s.mu.Unlock()

	a.Start()

	log.DebugS(s.ctx, "Actor spawned", "actor_id", id)

	return a.Ref()
}

// StopActor stops a single actor by ID and removes it from the system. It
// reports whether the actor was found.
func (s *System) StopActor(id string) bool {
	s.mu.Lock()
	a, ok := s.actors[id]
	if ok {
		delete(s.actors, id)
	}
	s.mu.Unlock()

	if ok {
		a.Stop()
	}

	return ok
}

// Shutdown stops every actor and waits for their goroutines to exit, or for
// the context to expire. A non-nil return means some actor goroutines may
// still be running.
func (s *System) Shutdown(ctx context.Context) error {
	// Cancelling first blocks new Spawns from racing the WaitGroup
	// snapshot below.
	s.cancel()

	s.mu.Lock()
	actors := s.actors
	s.actors = make(map[string]stopper)
	s.mu.Unlock()

	log.InfoS(ctx, "Actor system shutting down",
		"num_actors", len(actors))

	for _, a := range actors {
		a.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.InfoS(ctx, "Actor system shutdown complete")
		return nil

	case <-ctx.Done():
		log.ErrorS(ctx, "Actor system shutdown incomplete", ctx.Err())
		return ctx.Err()
	}
}
