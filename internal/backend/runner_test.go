package backend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voltmail/syncd/internal/refresh"
)

// report is one recorded callback invocation.
type report struct {
	kind      string
	err       error
	accountID int64
	targetID  int64
	progress  int
}

// recCallback records every callback in arrival order.
type recCallback struct {
	mu      sync.Mutex
	reports []report
}

func (c *recCallback) OnMailboxListProgress(opErr error, accountID int64,
	progress int) {

	c.record(report{
		kind: "list", err: opErr,
		accountID: accountID, targetID: refresh.NoMailbox,
		progress: progress,
	})
}

func (c *recCallback) OnMailboxProgress(opErr error, accountID,
	mailboxID int64, progress int) {

	c.record(report{
		kind: "box", err: opErr,
		accountID: accountID, targetID: mailboxID,
		progress: progress,
	})
}

func (c *recCallback) OnSendProgress(opErr error, accountID,
	messageID int64, progress int) {

	c.record(report{
		kind: "send", err: opErr,
		accountID: accountID, targetID: messageID,
		progress: progress,
	})
}

func (c *recCallback) record(r report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

func (c *recCallback) snapshot() []report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]report(nil), c.reports...)
}

// waitReports polls until the callback has recorded n reports.
func (c *recCallback) waitReports(t *testing.T, n int) []report {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(c.snapshot()) >= n
	}, 5*time.Second, time.Millisecond)

	got := c.snapshot()
	require.Len(t, got, n)

	return got
}

func newTestRunner(t *testing.T, cfg Config) (*SimRunner, *recCallback) {
	t.Helper()

	if cfg.StepDelay == 0 {
		cfg.StepDelay = time.Microsecond
	}

	r := NewSimRunner(cfg)
	cb := &recCallback{}
	r.RegisterResultCallback(cb)

	return r, cb
}

func TestSimRunnerRefreshSequence(t *testing.T) {
	t.Parallel()

	r, cb := newTestRunner(t, Config{MidTicks: 2})

	r.UpdateMailbox(1, 5, false)

	got := cb.waitReports(t, 4)
	r.Stop()

	// Start, two mid ticks, completion, all for the right target and in
	// ascending progress order.
	require.Equal(t, []report{
		{kind: "box", accountID: 1, targetID: 5, progress: 0},
		{kind: "box", accountID: 1, targetID: 5, progress: 33},
		{kind: "box", accountID: 1, targetID: 5, progress: 66},
		{kind: "box", accountID: 1, targetID: 5, progress: 100},
	}, got)
}

func TestSimRunnerMailboxListSequence(t *testing.T) {
	t.Parallel()

	r, cb := newTestRunner(t, Config{})

	r.UpdateMailboxList(9)

	got := cb.waitReports(t, 2)
	r.Stop()

	require.Equal(t, []report{
		{
			kind: "list", accountID: 9,
			targetID: refresh.NoMailbox, progress: 0,
		},
		{
			kind: "list", accountID: 9,
			targetID: refresh.NoMailbox, progress: 100,
		},
	}, got)
}

func TestSimRunnerRefreshErrorAborts(t *testing.T) {
	t.Parallel()

	opErr := refresh.NewMessagingError("auth failed")
	r, cb := newTestRunner(t, Config{
		MidTicks: 3,
		RefreshErr: func(_, _ int64) error {
			return opErr
		},
	})

	r.UpdateMailbox(1, 5, false)

	// The failure cuts the sequence short: a clean start, then the error
	// report, no mid ticks or completion.
	got := cb.waitReports(t, 2)
	r.Stop()

	require.NoError(t, got[0].err)
	require.ErrorIs(t, got[1].err, opErr)
}

func TestSimRunnerSendBatch(t *testing.T) {
	t.Parallel()

	msgErr := refresh.NewMessagingError("recipient rejected")
	r, cb := newTestRunner(t, Config{
		PendingMessages: func(int64) []int64 {
			return []int64{7, 8}
		},
		SendErr: func(_, messageID int64) error {
			if messageID == 8 {
				return msgErr
			}
			return nil
		},
	})

	r.SendPendingMessages(3)

	got := cb.waitReports(t, 4)
	r.Stop()

	// Boundary, per-message reports in queue order, boundary. The failed
	// message carries its error but does not abort the batch.
	require.Equal(t, report{
		kind: "send", accountID: 3,
		targetID: refresh.NoMessage, progress: 0,
	}, got[0])
	require.Equal(t, report{
		kind: "send", accountID: 3, targetID: 7, progress: 100,
	}, got[1])
	require.Equal(t, report{
		kind: "send", err: msgErr, accountID: 3,
		targetID: 8, progress: 100,
	}, got[2])
	require.Equal(t, report{
		kind: "send", accountID: 3,
		targetID: refresh.NoMessage, progress: 100,
	}, got[3])
}

func TestSimRunnerEmptySendBatch(t *testing.T) {
	t.Parallel()

	r, cb := newTestRunner(t, Config{})

	r.SendPendingMessages(3)

	// No pending messages still yields both boundary reports.
	got := cb.waitReports(t, 2)
	r.Stop()

	require.Equal(t, refresh.NoMessage, got[0].targetID)
	require.Equal(t, 0, got[0].progress)
	require.Equal(t, refresh.NoMessage, got[1].targetID)
	require.Equal(t, 100, got[1].progress)
}

func TestSimRunnerDropsWithoutCallback(t *testing.T) {
	t.Parallel()

	r := NewSimRunner(Config{StepDelay: time.Microsecond})

	// No callback registered: operations are dropped, Stop is clean.
	r.UpdateMailboxList(1)
	r.SendPendingMessages(1)
	r.Stop()
}

func TestSimRunnerRejectsAfterStop(t *testing.T) {
	t.Parallel()

	r, cb := newTestRunner(t, Config{})
	r.Stop()

	r.UpdateMailboxList(1)

	// Nothing is ever reported for an operation issued after Stop.
	time.Sleep(10 * time.Millisecond)
	require.Empty(t, cb.snapshot())
}

// TestSimRunnerDrivesCoordinator wires the simulated backend to a real
// coordinator and watches a refresh run to completion across goroutines.
func TestSimRunnerDrivesCoordinator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	r := NewSimRunner(Config{
		StepDelay: time.Microsecond,
		MidTicks:  1,
	})
	defer r.Stop()

	coord, err := refresh.New(refresh.Config{
		Runner:   r,
		Accounts: staticAccounts{1},
	})
	require.NoError(t, err)

	coord.Start()
	defer coord.Stop()

	accepted, err := coord.RequestMessageListRefresh(ctx, 1, 5)
	require.NoError(t, err)
	require.True(t, accepted)

	// The operation finishes on the runner's goroutine; the coordinator
	// eventually observes the completion through the marshaled callbacks.
	require.Eventually(t, func() bool {
		refreshing, err := coord.IsMessageListRefreshing(ctx, 5)
		require.NoError(t, err)
		return !refreshing
	}, 5*time.Second, time.Millisecond)

	snap, err := coord.StatusSnapshot(ctx, refresh.NamespaceMessageList, 5)
	require.NoError(t, err)
	require.False(t, snap.LastCompletion.IsZero())
}

// staticAccounts is a fixed-id AccountLister.
type staticAccounts []int64

func (s staticAccounts) ListAccountIDs(context.Context) ([]int64, error) {
	return s, nil
}
