package refresh

import (
	"context"
)

const (
	// NoMailbox is the mailbox id used in listener events that concern an
	// account-level target (mailbox list refreshes and outbox sends).
	NoMailbox int64 = -1

	// NoMessage is the wire sentinel the backend uses for the message id
	// on send-batch boundary callbacks.
	NoMessage int64 = -1
)

// OperationRunner is the external backend that performs the actual
// mail-protocol work. All calls are fire-and-forget: they must return
// without blocking on I/O, and results arrive later through the
// ResultCallback registered with RegisterResultCallback.
type OperationRunner interface {
	// UpdateMailboxList re-fetches the mailbox list of an account.
	UpdateMailboxList(accountID int64)

	// UpdateMailbox re-fetches messages in a mailbox. With loadMore set,
	// the backend extends the loaded message window instead of
	// refreshing it.
	UpdateMailbox(accountID, mailboxID int64, loadMore bool)

	// SendPendingMessages transmits all queued outgoing messages for an
	// account.
	SendPendingMessages(accountID int64)

	// RegisterResultCallback registers the recipient of operation
	// progress reports. Callbacks may be invoked from arbitrary
	// goroutines.
	RegisterResultCallback(cb ResultCallback)
}

// ResultCallback receives progress reports from the backend runner. The
// coordinator implements it; implementations must be safe to invoke from any
// goroutine since the runner reports from its workers.
type ResultCallback interface {
	// OnMailboxListProgress reports progress of a mailbox list refresh.
	OnMailboxListProgress(opErr error, accountID int64, progress int)

	// OnMailboxProgress reports progress of a message list refresh. It
	// is invoked identically for user-initiated and timer-initiated
	// refreshes of the same mailbox.
	OnMailboxProgress(opErr error, accountID, mailboxID int64,
		progress int)

	// OnSendProgress reports progress of an outbox send batch using the
	// overloaded wire convention: messageID == NoMessage marks batch
	// boundaries (progress 0 start, 100 end), any other id is a
	// per-message report.
	OnSendProgress(opErr error, accountID, messageID int64, progress int)
}

// AccountLister enumerates the known account ids. It backs
// SendPendingForAllAccounts and is implemented by the accounts store.
type AccountLister interface {
	ListAccountIDs(ctx context.Context) ([]int64, error)
}

// Listener observes coordinator state changes. Listeners are notified
// synchronously, in registration order, on the coordinator's own execution
// context; implementations must not block.
type Listener interface {
	// OnRefreshStatusChanged fires whenever a target's Status may have
	// changed. mailboxID is NoMailbox for account-level targets.
	OnRefreshStatusChanged(accountID, mailboxID int64)

	// OnMessagingError fires when a backend operation reports an error.
	// For send batches the failed message id rides in the mailboxID
	// slot, matching the backend's reporting convention.
	OnMessagingError(accountID, mailboxID int64, message string)
}
