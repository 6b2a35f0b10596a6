package backend

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voltmail/syncd/internal/refresh"
)

// defaultStepDelay is the pause between successive progress reports of a
// simulated operation.
const defaultStepDelay = 10 * time.Millisecond

// Config tunes the simulated backend.
type Config struct {
	// StepDelay is the pause between progress reports. Defaults to
	// defaultStepDelay; tests set it to a very small value.
	StepDelay time.Duration

	// MidTicks is how many intermediate progress reports a refresh
	// operation emits between start and completion.
	MidTicks int

	// PendingMessages returns the queued outgoing message ids for an
	// account. Nil or an empty return yields an empty send batch, which
	// still emits the start and end boundary reports.
	PendingMessages func(accountID int64) []int64

	// RefreshErr, when non-nil, injects a failure into mailbox-list and
	// message-list operations. mailboxID is refresh.NoMailbox for
	// mailbox-list operations. A non-nil return aborts the operation
	// after the start report.
	RefreshErr func(accountID, mailboxID int64) error

	// SendErr, when non-nil, injects a per-message failure into send
	// batches. A failed message does not abort the batch; remaining
	// messages are still attempted, matching real transport behavior.
	SendErr func(accountID, messageID int64) error
}

// SimRunner is an in-process OperationRunner that simulates mail-protocol
// work. Every operation runs on its own goroutine and reports progress
// through the registered callback, so callers exercise the same cross-
// goroutine delivery path a real transport would.
type SimRunner struct {
	cfg Config

	mu sync.Mutex
	cb refresh.ResultCallback

	wg   sync.WaitGroup
	quit chan struct{}
}

// NewSimRunner creates a simulated backend.
func NewSimRunner(cfg Config) *SimRunner {
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = defaultStepDelay
	}

	return &SimRunner{
		cfg:  cfg,
		quit: make(chan struct{}),
	}
}

// RegisterResultCallback implements refresh.OperationRunner.
func (r *SimRunner) RegisterResultCallback(cb refresh.ResultCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb = cb
}

// Stop waits for all in-flight operations to finish reporting. Operations
// started after Stop returns are rejected.
func (r *SimRunner) Stop() {
	close(r.quit)
	r.wg.Wait()
}

// UpdateMailboxList implements refresh.OperationRunner.
func (r *SimRunner) UpdateMailboxList(accountID int64) {
	r.spawn("mailbox_list", accountID, refresh.NoMailbox,
		func(cb refresh.ResultCallback) {
			report := func(opErr error, progress int) {
				cb.OnMailboxListProgress(
					opErr, accountID, progress,
				)
			}
			r.runRefresh(accountID, refresh.NoMailbox, report)
		},
	)
}

// UpdateMailbox implements refresh.OperationRunner. loadMore only changes
// what a real backend would fetch; the simulated progress sequence is the
// same either way.
func (r *SimRunner) UpdateMailbox(accountID, mailboxID int64, _ bool) {
	r.spawn("message_list", accountID, mailboxID,
		func(cb refresh.ResultCallback) {
			report := func(opErr error, progress int) {
				cb.OnMailboxProgress(
					opErr, accountID, mailboxID, progress,
				)
			}
			r.runRefresh(accountID, mailboxID, report)
		},
	)
}

// SendPendingMessages implements refresh.OperationRunner. It emits the full
// batch protocol: a start boundary, one report per message, and an end
// boundary. Per-message failures are reported but do not abort the batch.
func (r *SimRunner) SendPendingMessages(accountID int64) {
	r.spawn("send", accountID, refresh.NoMailbox,
		func(cb refresh.ResultCallback) {
			var pending []int64
			if r.cfg.PendingMessages != nil {
				pending = r.cfg.PendingMessages(accountID)
			}

			cb.OnSendProgress(nil, accountID, refresh.NoMessage,
				refresh.ProgressStarted)

			for _, msgID := range pending {
				if !r.pause() {
					return
				}

				var msgErr error
				if r.cfg.SendErr != nil {
					msgErr = r.cfg.SendErr(
						accountID, msgID,
					)
				}
				cb.OnSendProgress(msgErr, accountID, msgID,
					refresh.ProgressComplete)
			}

			if !r.pause() {
				return
			}
			cb.OnSendProgress(nil, accountID, refresh.NoMessage,
				refresh.ProgressComplete)
		},
	)
}

// runRefresh drives the shared progress sequence of the two refresh
// operations: start, optional mid ticks, then completion or the injected
// failure.
func (r *SimRunner) runRefresh(accountID, mailboxID int64,
	report func(opErr error, progress int)) {

	report(nil, refresh.ProgressStarted)

	var opErr error
	if r.cfg.RefreshErr != nil {
		opErr = r.cfg.RefreshErr(accountID, mailboxID)
	}
	if opErr != nil {
		if !r.pause() {
			return
		}
		report(opErr, refresh.ProgressStarted)
		return
	}

	for i := 1; i <= r.cfg.MidTicks; i++ {
		if !r.pause() {
			return
		}
		report(nil, i*refresh.ProgressComplete/(r.cfg.MidTicks+1))
	}

	if !r.pause() {
		return
	}
	report(nil, refresh.ProgressComplete)
}

// spawn launches one simulated operation on its own goroutine. Operations
// issued without a registered callback, or after Stop, are dropped.
func (r *SimRunner) spawn(op string, accountID, mailboxID int64,
	body func(cb refresh.ResultCallback)) {

	r.mu.Lock()
	cb := r.cb
	r.mu.Unlock()

	ctx := context.Background()
	opID := uuid.New()

	if cb == nil {
		log.WarnS(ctx, "Dropping operation with no callback", nil,
			"op", op, "op_id", opID, "account_id", accountID)
		return
	}

	select {
	case <-r.quit:
		log.DebugS(ctx, "Dropping operation after stop",
			"op", op, "op_id", opID, "account_id", accountID)
		return
	default:
	}

	log.DebugS(ctx, "Starting simulated operation",
		"op", op, "op_id", opID,
		"account_id", accountID, "mailbox_id", mailboxID)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		body(cb)
	}()
}

// pause sleeps one step delay, returning false if the runner was stopped in
// the meantime.
func (r *SimRunner) pause() bool {
	select {
	case <-time.After(r.cfg.StepDelay):
		return true
	case <-r.quit:
		return false
	}
}

// Ensure SimRunner implements the backend interface.
var _ refresh.OperationRunner = (*SimRunner)(nil)
