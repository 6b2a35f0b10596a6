package refresh

import (
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/voltmail/syncd/internal/baselib/actor"
)

// Namespace selects one of the coordinator's three independent status
// namespaces. Target ids in different namespaces may collide numerically but
// refer to independent Status entries.
type Namespace int

const (
	// NamespaceMailboxList tracks mailbox-list refreshes, keyed by
	// account id.
	NamespaceMailboxList Namespace = iota

	// NamespaceMessageList tracks message-list refreshes, keyed by
	// mailbox id.
	NamespaceMessageList

	// NamespaceOutbox tracks outbox sends, keyed by account id.
	NamespaceOutbox
)

// String returns the namespace name for log output.
func (n Namespace) String() string {
	switch n {
	case NamespaceMailboxList:
		return "mailbox_list"
	case NamespaceMessageList:
		return "message_list"
	case NamespaceOutbox:
		return "outbox"
	default:
		return "unknown"
	}
}

// ActivityScope selects which namespaces an aggregate activity query covers.
type ActivityScope int

const (
	// ScopeMailboxLists covers mailbox-list refreshes only.
	ScopeMailboxLists ActivityScope = iota

	// ScopeMessageLists covers message-list refreshes only.
	ScopeMessageLists

	// ScopeSends covers outbox sends only.
	ScopeSends

	// ScopeAll covers all three namespaces.
	ScopeAll
)

// CoordMsg is the union type for all messages the coordinator actor accepts.
type CoordMsg interface {
	actor.Message
	isCoordMsg()
}

func (MailboxListRefreshMsg) isCoordMsg()  {}
func (MessageListRefreshMsg) isCoordMsg()  {}
func (SendPendingMsg) isCoordMsg()         {}
func (StaleQueryMsg) isCoordMsg()          {}
func (ActivityQueryMsg) isCoordMsg()       {}
func (StatusQueryMsg) isCoordMsg()         {}
func (LastErrorQueryMsg) isCoordMsg()      {}
func (AddListenerMsg) isCoordMsg()         {}
func (RemoveListenerMsg) isCoordMsg()      {}
func (MailboxListProgressMsg) isCoordMsg() {}
func (MessageListProgressMsg) isCoordMsg() {}
func (SendProgressMsg) isCoordMsg()        {}

// CoordResponse is the union type for all coordinator actor responses.
type CoordResponse interface {
	isCoordResponse()
}

func (RequestOutcome) isCoordResponse()   {}
func (BoolResponse) isCoordResponse()     {}
func (StatusResponse) isCoordResponse()   {}
func (LastErrorResponse) isCoordResponse() {}
func (Ack) isCoordResponse()              {}

// MailboxListRefreshMsg requests a refresh of an account's mailbox list.
type MailboxListRefreshMsg struct {
	actor.BaseMessage

	// AccountID identifies the account whose mailbox list to refresh.
	AccountID int64
}

// MessageType implements actor.Message.
func (MailboxListRefreshMsg) MessageType() string {
	return "MailboxListRefreshMsg"
}

// MessageListRefreshMsg requests a refresh of the messages in a mailbox, or
// a load-more when LoadMore is set. Both variants share the same Status per
// mailbox, so one suppresses the other while active.
type MessageListRefreshMsg struct {
	actor.BaseMessage

	// AccountID identifies the owning account.
	AccountID int64

	// MailboxID identifies the mailbox; it keys the Status entry.
	MailboxID int64

	// LoadMore extends the loaded message window instead of refreshing.
	LoadMore bool
}

// MessageType implements actor.Message.
func (MessageListRefreshMsg) MessageType() string {
	return "MessageListRefreshMsg"
}

// SendPendingMsg requests transmission of an account's pending outgoing
// messages.
type SendPendingMsg struct {
	actor.BaseMessage

	// AccountID identifies the account whose outbox to flush.
	AccountID int64
}

// MessageType implements actor.Message.
func (SendPendingMsg) MessageType() string { return "SendPendingMsg" }

// RequestOutcome answers the three request messages. Accepted is false when
// the target was already active and the request was coalesced into the
// in-flight one.
type RequestOutcome struct {
	Accepted bool
}

// StaleQueryMsg asks whether a mailbox is due for an automatic refresh.
type StaleQueryMsg struct {
	actor.BaseMessage

	// MailboxID identifies the mailbox to check.
	MailboxID int64
}

// MessageType implements actor.Message.
func (StaleQueryMsg) MessageType() string { return "StaleQueryMsg" }

// ActivityQueryMsg asks whether anything in the given scope is active.
type ActivityQueryMsg struct {
	actor.BaseMessage

	// Scope selects the namespaces covered by the query.
	Scope ActivityScope
}

// MessageType implements actor.Message.
func (ActivityQueryMsg) MessageType() string { return "ActivityQueryMsg" }

// BoolResponse answers StaleQueryMsg and ActivityQueryMsg.
type BoolResponse struct {
	Value bool
}

// StatusQueryMsg asks for a read-only snapshot of one target's Status, for
// inspection and tests.
type StatusQueryMsg struct {
	actor.BaseMessage

	// Namespace selects the status namespace.
	Namespace Namespace

	// TargetID is the account or mailbox id within the namespace.
	TargetID int64
}

// MessageType implements actor.Message.
func (StatusQueryMsg) MessageType() string { return "StatusQueryMsg" }

// StatusResponse answers StatusQueryMsg.
type StatusResponse struct {
	Snapshot StatusSnapshot
}

// LastErrorQueryMsg asks for the most recently recorded error message.
type LastErrorQueryMsg struct {
	actor.BaseMessage
}

// MessageType implements actor.Message.
func (LastErrorQueryMsg) MessageType() string { return "LastErrorQueryMsg" }

// LastErrorResponse answers LastErrorQueryMsg. Message is None until the
// first error is recorded; afterwards it holds the latest one across all
// namespaces.
type LastErrorResponse struct {
	Message fn.Option[string]
}

// AddListenerMsg registers a status listener.
type AddListenerMsg struct {
	actor.BaseMessage

	// Listener is the observer to append to the registry.
	Listener Listener
}

// MessageType implements actor.Message.
func (AddListenerMsg) MessageType() string { return "AddListenerMsg" }

// RemoveListenerMsg unregisters a status listener.
type RemoveListenerMsg struct {
	actor.BaseMessage

	// Listener is the observer to remove from the registry.
	Listener Listener
}

// MessageType implements actor.Message.
func (RemoveListenerMsg) MessageType() string { return "RemoveListenerMsg" }

// Ack is the empty success response for messages with no payload to return.
type Ack struct{}

// MailboxListProgressMsg carries a backend progress report for a mailbox
// list refresh.
type MailboxListProgressMsg struct {
	actor.BaseMessage

	// Err is the backend failure, if any.
	Err error

	// AccountID identifies the account being refreshed.
	AccountID int64

	// Progress is the raw progress value (0 started, 100 complete).
	Progress int
}

// MessageType implements actor.Message.
func (MailboxListProgressMsg) MessageType() string {
	return "MailboxListProgressMsg"
}

// MessageListProgressMsg carries a backend progress report for a message
// list refresh. User- and timer-initiated refreshes of the same mailbox both
// arrive here and share one Status.
type MessageListProgressMsg struct {
	actor.BaseMessage

	// Err is the backend failure, if any.
	Err error

	// AccountID identifies the owning account.
	AccountID int64

	// MailboxID identifies the mailbox being refreshed.
	MailboxID int64

	// Progress is the raw progress value (0 started, 100 complete).
	Progress int
}

// MessageType implements actor.Message.
func (MessageListProgressMsg) MessageType() string {
	return "MessageListProgressMsg"
}

// SendProgressMsg carries a backend progress report for an outbox send
// batch, already translated from the sentinel wire convention into a tagged
// SendEvent.
type SendProgressMsg struct {
	actor.BaseMessage

	// Err is the backend failure, if any.
	Err error

	// AccountID identifies the account whose batch is in flight.
	AccountID int64

	// Event is the decoded batch event.
	Event SendEvent
}

// MessageType implements actor.Message.
func (SendProgressMsg) MessageType() string { return "SendProgressMsg" }
