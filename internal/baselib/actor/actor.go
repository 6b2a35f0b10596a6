package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Config holds the parameters for creating an Actor.
type Config[M Message, R any] struct {
	// ID uniquely identifies the actor, mainly for logging.
	ID string

	// Behavior processes the actor's messages.
	Behavior Behavior[M, R]

	// MailboxSize is the buffer capacity of the mailbox. Values <= 0
	// default to 1.
	MailboxSize int

	// Wg, when non-nil, tracks the actor goroutine: Add(1) on Start,
	// Done when the process loop exits. The system uses this for
	// deterministic shutdown.
	Wg *sync.WaitGroup
}

// Actor runs a Behavior on its own goroutine, feeding it messages from a
// mailbox one at a time.
type Actor[M Message, R any] struct {
	id       string
	behavior Behavior[M, R]
	mbox     *mailbox[M, R]

	// ctx governs the actor's lifetime; cancel stops the process loop.
	ctx    context.Context
	cancel context.CancelFunc

	wg *sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	ref Ref[M, R]
}

// New creates an actor but does not start it; call Start to begin
// processing.
func New[M Message, R any](cfg Config[M, R]) *Actor[M, R] {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Actor[M, R]{
		id:       cfg.ID,
		behavior: cfg.Behavior,
		mbox:     newMailbox[M, R](ctx, cfg.MailboxSize),
		ctx:      ctx,
		cancel:   cancel,
		wg:       cfg.Wg,
	}
	a.ref = &refImpl[M, R]{actor: a}

	return a
}

// Start launches the actor's process loop. Repeated calls are no-ops.
func (a *Actor[M, R]) Start() {
	a.startOnce.Do(func() {
		log.DebugS(a.ctx, "Starting actor", "actor_id", a.id)

		if a.wg != nil {
			a.wg.Add(1)
		}
		go a.process()
	})
}

// Stop cancels the actor's context, terminating the process loop after the
// message currently being handled. Pending Asks fail with ErrTerminated.
func (a *Actor[M, R]) Stop() {
	a.stopOnce.Do(a.cancel)
}

// Ref returns the actor's reference for Tell/Ask interactions.
func (a *Actor[M, R]) Ref() Ref[M, R] {
	return a.ref
}

// TellRef returns a capability-restricted, tell-only view of the actor.
func (a *Actor[M, R]) TellRef() TellOnlyRef[M] {
	return a.ref
}

// process is the actor's event loop. It runs until the actor context is
// cancelled, then fails any stranded Asks so no caller blocks forever.
func (a *Actor[M, R]) process() {
	if a.wg != nil {
		defer a.wg.Done()
	}

	for env := range a.mbox.receive(a.ctx) {
		log.TraceS(a.ctx, "Processing message",
			"actor_id", a.id,
			"msg_type", env.msg.MessageType(),
			"is_ask", env.promise != nil)

		result := a.behavior.Receive(a.ctx, env.msg)

		if env.promise != nil {
			env.promise.Complete(result)
		}
	}

	// The context is cancelled. Refuse new sends, then drain whatever
	// made it into the mailbox before the close.
	a.mbox.close()

	drained := 0
	for env := range a.mbox.drain() {
		drained++
		if env.promise != nil {
			env.promise.Complete(fn.Err[R](ErrTerminated))
		}
	}

	log.DebugS(a.ctx, "Actor terminated",
		"actor_id", a.id, "drained_messages", drained)
}

// refImpl is the concrete Ref implementation.
type refImpl[M Message, R any] struct {
	actor *Actor[M, R]
}

// ID implements BaseRef.
func (r *refImpl[M, R]) ID() string {
	return r.actor.id
}

// Tell implements TellOnlyRef. Delivery is best-effort: if the actor has
// terminated or the caller's context is cancelled before the envelope is
// enqueued, the message is dropped.
func (r *refImpl[M, R]) Tell(ctx context.Context, msg M) {
	ok := r.actor.mbox.send(ctx, envelope[M, R]{msg: msg})
	if !ok {
		log.DebugS(ctx, "Tell dropped",
			"actor_id", r.actor.id,
			"msg_type", msg.MessageType())
	}
}

// Ask implements Ref. The returned future resolves with the behavior's
// response, or with ErrTerminated if the actor is gone.
func (r *refImpl[M, R]) Ask(ctx context.Context, msg M) Future[R] {
	promise := NewPromise[R]()

	ok := r.actor.mbox.send(ctx, envelope[M, R]{
		msg:     msg,
		promise: promise,
	})
	if !ok {
		// Distinguish caller cancellation from actor termination so
		// the error is attributable.
		if err := ctx.Err(); err != nil && r.actor.ctx.Err() == nil {
			promise.Complete(fn.Err[R](err))
		} else {
			promise.Complete(fn.Err[R](ErrTerminated))
		}
	}

	return promise.Future()
}

// AskAwait sends an Ask and blocks for the unpacked response. It is the
// common calling convention for request-response interactions with an actor.
func AskAwait[M Message, R any](ctx context.Context, ref Ref[M, R],
	msg M) (R, error) {

	return ref.Ask(ctx, msg).Await(ctx).Unpack()
}
