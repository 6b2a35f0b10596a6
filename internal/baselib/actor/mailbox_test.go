package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMailboxSendReceive(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mbox := newMailbox[echoMsg, int](actorCtx, 4)
	defer mbox.close()

	ok := mbox.send(context.Background(), envelope[echoMsg, int]{
		msg: echoMsg{value: 7},
	})
	require.True(t, ok)

	for env := range mbox.receive(context.Background()) {
		require.Equal(t, 7, env.msg.value)
		break
	}
}

func TestMailboxSendFailsAfterClose(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mbox := newMailbox[echoMsg, int](actorCtx, 1)
	mbox.close()

	ok := mbox.send(context.Background(), envelope[echoMsg, int]{
		msg: echoMsg{value: 1},
	})
	require.False(t, ok)
}

func TestMailboxSendFailsWhenActorCancelled(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	mbox := newMailbox[echoMsg, int](actorCtx, 1)
	cancel()

	ok := mbox.send(context.Background(), envelope[echoMsg, int]{
		msg: echoMsg{value: 1},
	})
	require.False(t, ok)
}

func TestMailboxSendFailsWhenFullAndCallerCancels(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mbox := newMailbox[echoMsg, int](actorCtx, 1)
	defer mbox.close()

	ok := mbox.send(context.Background(), envelope[echoMsg, int]{
		msg: echoMsg{value: 1},
	})
	require.True(t, ok)

	callerCtx, callerCancel := context.WithCancel(context.Background())
	callerCancel()

	ok = mbox.send(callerCtx, envelope[echoMsg, int]{
		msg: echoMsg{value: 2},
	})
	require.False(t, ok)
}

func TestMailboxDrainYieldsRemaining(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mbox := newMailbox[echoMsg, int](actorCtx, 4)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok := mbox.send(ctx, envelope[echoMsg, int]{
			msg: echoMsg{value: i},
		})
		require.True(t, ok)
	}

	mbox.close()

	var values []int
	for env := range mbox.drain() {
		values = append(values, env.msg.value)
	}
	require.Equal(t, []int{0, 1, 2}, values)
}

func TestMailboxDrainBeforeCloseIsEmpty(t *testing.T) {
	t.Parallel()

	actorCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mbox := newMailbox[echoMsg, int](actorCtx, 4)
	defer mbox.close()

	count := 0
	for range mbox.drain() {
		count++
	}
	require.Zero(t, count)
}
