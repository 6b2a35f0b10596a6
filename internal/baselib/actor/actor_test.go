package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// echoMsg is a minimal message type for exercising the runtime.
type echoMsg struct {
	BaseMessage
	value int
}

func (echoMsg) MessageType() string { return "echoMsg" }

// echoBehavior returns the message value back to the asker.
func echoBehavior() Behavior[echoMsg, int] {
	return BehaviorFunc[echoMsg, int](
		func(_ context.Context, msg echoMsg) fn.Result[int] {
			return fn.Ok(msg.value)
		},
	)
}

func TestAskReturnsBehaviorResult(t *testing.T) {
	t.Parallel()

	a := New(Config[echoMsg, int]{ID: "echo", Behavior: echoBehavior()})
	a.Start()
	defer a.Stop()

	got, err := AskAwait(context.Background(), a.Ref(), echoMsg{value: 42})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestTellProcessedInOrder(t *testing.T) {
	t.Parallel()

	var seen []int
	behavior := BehaviorFunc[echoMsg, int](
		func(_ context.Context, msg echoMsg) fn.Result[int] {
			seen = append(seen, msg.value)
			return fn.Ok(msg.value)
		},
	)

	a := New(Config[echoMsg, int]{
		ID:          "order",
		Behavior:    behavior,
		MailboxSize: 16,
	})
	a.Start()
	defer a.Stop()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		a.Ref().Tell(ctx, echoMsg{value: i})
	}

	// An Ask after the Tells fences them: the mailbox is FIFO, so by the
	// time the Ask resolves every prior Tell has been processed.
	_, err := AskAwait(ctx, a.Ref(), echoMsg{value: -1})
	require.NoError(t, err)

	require.Len(t, seen, 11)
	for i := 0; i < 10; i++ {
		require.Equal(t, i, seen[i])
	}
}

func TestAskAfterStopFailsWithTerminated(t *testing.T) {
	t.Parallel()

	a := New(Config[echoMsg, int]{ID: "stopped", Behavior: echoBehavior()})
	a.Start()
	a.Stop()

	// Stop is asynchronous with respect to the process loop; the mailbox
	// rejects sends as soon as the actor context is cancelled.
	_, err := AskAwait(context.Background(), a.Ref(), echoMsg{value: 1})
	require.ErrorIs(t, err, ErrTerminated)
}

func TestPendingAsksFailOnStop(t *testing.T) {
	t.Parallel()

	var startOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	behavior := BehaviorFunc[echoMsg, int](
		func(_ context.Context, msg echoMsg) fn.Result[int] {
			startOnce.Do(func() { close(started) })
			<-release
			return fn.Ok(msg.value)
		},
	)

	a := New(Config[echoMsg, int]{
		ID:          "pending",
		Behavior:    behavior,
		MailboxSize: 8,
	})
	a.Start()

	ctx := context.Background()

	// First ask occupies the behavior; the second waits in the mailbox.
	blocked := a.Ref().Ask(ctx, echoMsg{value: 1})
	<-started
	queued := a.Ref().Ask(ctx, echoMsg{value: 2})

	a.Stop()
	close(release)

	// The in-flight message completes normally.
	_, err := blocked.Await(ctx).Unpack()
	require.NoError(t, err)

	// The queued message is drained and its promise failed.
	_, err = queued.Await(ctx).Unpack()
	require.ErrorIs(t, err, ErrTerminated)
}

func TestAwaitRespectsCallerContext(t *testing.T) {
	t.Parallel()

	behavior := BehaviorFunc[echoMsg, int](
		func(ctx context.Context, msg echoMsg) fn.Result[int] {
			<-ctx.Done()
			return fn.Err[int](ctx.Err())
		},
	)

	a := New(Config[echoMsg, int]{ID: "slow", Behavior: behavior})
	a.Start()
	defer a.Stop()

	ctx, cancel := context.WithTimeout(
		context.Background(), 20*time.Millisecond,
	)
	defer cancel()

	_, err := AskAwait(ctx, a.Ref(), echoMsg{value: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPromiseCompletesOnce(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()
	require.True(t, p.Complete(fn.Ok(1)))
	require.False(t, p.Complete(fn.Ok(2)))

	got, err := p.Future().Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, 1, got)
}

func TestSystemShutdownWaitsForActors(t *testing.T) {
	t.Parallel()

	sys := NewSystem()

	var processed atomic.Int32
	behavior := BehaviorFunc[echoMsg, int](
		func(_ context.Context, msg echoMsg) fn.Result[int] {
			processed.Add(1)
			return fn.Ok(msg.value)
		},
	)

	ref1 := Spawn(sys, "worker-1", behavior)
	ref2 := Spawn(sys, "worker-2", behavior, WithMailboxSize(4))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ref1.Tell(ctx, echoMsg{value: i})
		ref2.Tell(ctx, echoMsg{value: i})
	}

	require.NoError(t, sys.Shutdown(ctx))

	// After Shutdown returns, no actor goroutine is running, so the
	// counter cannot move anymore.
	final := processed.Load()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, final, processed.Load())
}

func TestSpawnAfterShutdownYieldsDeadRef(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	require.NoError(t, sys.Shutdown(context.Background()))

	ref := Spawn(sys, "late", echoBehavior())

	_, err := AskAwait(context.Background(), ref, echoMsg{value: 1})
	require.ErrorIs(t, err, ErrTerminated)
}

func TestStopActor(t *testing.T) {
	t.Parallel()

	sys := NewSystem()
	defer sys.Shutdown(context.Background())

	Spawn(sys, "victim", echoBehavior())

	require.True(t, sys.StopActor("victim"))
	require.False(t, sys.StopActor("victim"))
}
