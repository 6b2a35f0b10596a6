package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/voltmail/syncd/internal/baselib/actor"
)

// DefaultAutoRefreshInterval is how long after the last successful
// completion a mailbox is considered fresh.
const DefaultAutoRefreshInterval = 5 * time.Minute

// Service is the coordinator actor behavior. It owns the three status
// namespaces, the listener registry, and the last-error slot. All of its
// state is mutated exclusively from the actor goroutine; it performs no
// locking of its own.
type Service struct {
	clock    Clock
	runner   OperationRunner
	interval time.Duration

	// mailboxLists is keyed by account id, messageLists by mailbox id,
	// outboxes by account id.
	mailboxLists *statusMap
	messageLists *statusMap
	outboxes     *statusMap

	// listeners are notified synchronously, in registration order.
	listeners []Listener

	// lastError is a single overwritten slot, not a history.
	lastError fn.Option[string]

	// sendErrReported gates error reporting to the first failure of the
	// current send batch, per account. Reset on batch start.
	sendErrReported map[int64]bool
}

// NewService creates the coordinator behavior.
func NewService(clock Clock, runner OperationRunner,
	interval time.Duration) *Service {

	if interval <= 0 {
		interval = DefaultAutoRefreshInterval
	}

	return &Service{
		clock:           clock,
		runner:          runner,
		interval:        interval,
		mailboxLists:    newStatusMap(),
		messageLists:    newStatusMap(),
		outboxes:        newStatusMap(),
		sendErrReported: make(map[int64]bool),
	}
}

// Receive implements actor.Behavior by dispatching to type-specific
// handlers.
func (s *Service) Receive(ctx context.Context,
	msg CoordMsg) fn.Result[CoordResponse] {

	switch m := msg.(type) {
	case MailboxListRefreshMsg:
		resp := s.handleMailboxListRefresh(ctx, m)
		return fn.Ok[CoordResponse](resp)

	case MessageListRefreshMsg:
		resp := s.handleMessageListRefresh(ctx, m)
		return fn.Ok[CoordResponse](resp)

	case SendPendingMsg:
		resp := s.handleSendPending(ctx, m)
		return fn.Ok[CoordResponse](resp)

	case StaleQueryMsg:
		st := s.messageLists.get(m.MailboxID)
		due := st.LastCompletion().Add(s.interval)
		stale := !s.clock.Now().Before(due)
		return fn.Ok[CoordResponse](BoolResponse{Value: stale})

	case ActivityQueryMsg:
		return fn.Ok[CoordResponse](BoolResponse{
			Value: s.anyActive(m.Scope),
		})

	case StatusQueryMsg:
		st := s.namespaceMap(m.Namespace).get(m.TargetID)
		return fn.Ok[CoordResponse](StatusResponse{
			Snapshot: st.snapshot(),
		})

	case LastErrorQueryMsg:
		return fn.Ok[CoordResponse](LastErrorResponse{
			Message: s.lastError,
		})

	case AddListenerMsg:
		if m.Listener == nil {
			return fn.Err[CoordResponse](ErrNilListener)
		}
		s.listeners = append(s.listeners, m.Listener)
		return fn.Ok[CoordResponse](Ack{})

	case RemoveListenerMsg:
		if m.Listener == nil {
			return fn.Err[CoordResponse](ErrNilListener)
		}
		s.removeListener(m.Listener)
		return fn.Ok[CoordResponse](Ack{})

	case MailboxListProgressMsg:
		s.handleMailboxListProgress(ctx, m)
		return fn.Ok[CoordResponse](Ack{})

	case MessageListProgressMsg:
		s.handleMessageListProgress(ctx, m)
		return fn.Ok[CoordResponse](Ack{})

	case SendProgressMsg:
		s.handleSendProgress(ctx, m)
		return fn.Ok[CoordResponse](Ack{})

	default:
		return fn.Err[CoordResponse](fmt.Errorf(
			"unknown message type: %T", msg,
		))
	}
}

// handleMailboxListRefresh gates, marks, notifies, and delegates a mailbox
// list refresh. A target that is already active coalesces the request.
func (s *Service) handleMailboxListRefresh(ctx context.Context,
	msg MailboxListRefreshMsg) RequestOutcome {

	st := s.mailboxLists.get(msg.AccountID)
	if !st.CanStart() {
		return RequestOutcome{Accepted: false}
	}

	log.InfoS(ctx, "Mailbox list refresh requested",
		"account_id", msg.AccountID)

	st.markRequested()
	s.notifyStatusChanged(msg.AccountID, NoMailbox)
	s.runner.UpdateMailboxList(msg.AccountID)

	return RequestOutcome{Accepted: true}
}

// handleMessageListRefresh gates, marks, notifies, and delegates a message
// list refresh or load-more. Both share the mailbox's single Status, so a
// load-more suppresses a refresh of the same mailbox and vice versa.
func (s *Service) handleMessageListRefresh(ctx context.Context,
	msg MessageListRefreshMsg) RequestOutcome {

	st := s.messageLists.get(msg.MailboxID)
	if !st.CanStart() {
		return RequestOutcome{Accepted: false}
	}

	log.InfoS(ctx, "Message list refresh requested",
		"account_id", msg.AccountID,
		"mailbox_id", msg.MailboxID,
		"load_more", msg.LoadMore)

	st.markRequested()
	s.notifyStatusChanged(msg.AccountID, msg.MailboxID)
	s.runner.UpdateMailbox(msg.AccountID, msg.MailboxID, msg.LoadMore)

	return RequestOutcome{Accepted: true}
}

// handleSendPending gates, marks, notifies, and delegates an outbox send.
func (s *Service) handleSendPending(ctx context.Context,
	msg SendPendingMsg) RequestOutcome {

	st := s.outboxes.get(msg.AccountID)
	if !st.CanStart() {
		return RequestOutcome{Accepted: false}
	}

	log.InfoS(ctx, "Pending send requested", "account_id", msg.AccountID)

	st.markRequested()
	s.notifyStatusChanged(msg.AccountID, NoMailbox)
	s.runner.SendPendingMessages(msg.AccountID)

	return RequestOutcome{Accepted: true}
}

// handleMailboxListProgress applies a mailbox-list progress report: advance
// the Status machine, surface any error, and always notify a status change.
func (s *Service) handleMailboxListProgress(ctx context.Context,
	msg MailboxListProgressMsg) {

	log.DebugS(ctx, "Mailbox list progress",
		"account_id", msg.AccountID,
		"progress", msg.Progress,
		"err", msg.Err)

	s.mailboxLists.get(msg.AccountID).applyProgress(
		msg.Err, msg.Progress, s.clock,
	)
	if msg.Err != nil {
		s.reportError(msg.AccountID, NoMailbox, msg.Err)
	}
	s.notifyStatusChanged(msg.AccountID, NoMailbox)
}

// handleMessageListProgress applies a message-list progress report. The same
// path serves user- and timer-initiated refreshes; if both could ever be in
// flight for one mailbox they would be conflated here, which is an accepted
// limitation of the single Status per mailbox.
func (s *Service) handleMessageListProgress(ctx context.Context,
	msg MessageListProgressMsg) {

	log.DebugS(ctx, "Message list progress",
		"account_id", msg.AccountID,
		"mailbox_id", msg.MailboxID,
		"progress", msg.Progress,
		"err", msg.Err)

	s.messageLists.get(msg.MailboxID).applyProgress(
		msg.Err, msg.Progress, s.clock,
	)
	if msg.Err != nil {
		s.reportError(msg.AccountID, msg.MailboxID, msg.Err)
	}
	s.notifyStatusChanged(msg.AccountID, msg.MailboxID)
}

// handleSendProgress applies a send-batch report. Only batch boundaries
// touch the outbox Status; per-message reports are progress only. Exactly
// one error per batch is surfaced: the gate resets on batch start and trips
// on the first report.
func (s *Service) handleSendProgress(ctx context.Context,
	msg SendProgressMsg) {

	log.DebugS(ctx, "Send progress",
		"account_id", msg.AccountID,
		"event", fmt.Sprintf("%T", msg.Event),
		"err", msg.Err)

	errTarget := NoMailbox

	switch ev := msg.Event.(type) {
	case SendBatchStarted:
		s.sendErrReported[msg.AccountID] = false

		s.outboxes.get(msg.AccountID).applyProgress(
			msg.Err, ProgressStarted, s.clock,
		)
		s.notifyStatusChanged(msg.AccountID, NoMailbox)

	case SendBatchEnded:
		s.outboxes.get(msg.AccountID).applyProgress(
			msg.Err, ev.Progress, s.clock,
		)
		s.notifyStatusChanged(msg.AccountID, NoMailbox)

	case SendMessageUpdate:
		// No Status change for individual messages; the failed
		// message id is what the error event points at.
		errTarget = ev.MessageID
	}

	if msg.Err != nil && !s.sendErrReported[msg.AccountID] {
		s.sendErrReported[msg.AccountID] = true
		s.reportError(msg.AccountID, errTarget, msg.Err)
	}
}

// anyActive evaluates an aggregate activity query.
func (s *Service) anyActive(scope ActivityScope) bool {
	switch scope {
	case ScopeMailboxLists:
		return s.mailboxLists.anyActive()
	case ScopeMessageLists:
		return s.messageLists.anyActive()
	case ScopeSends:
		return s.outboxes.anyActive()
	case ScopeAll:
		return s.mailboxLists.anyActive() ||
			s.messageLists.anyActive() ||
			s.outboxes.anyActive()
	default:
		return false
	}
}

// namespaceMap resolves a Namespace to its statusMap.
func (s *Service) namespaceMap(ns Namespace) *statusMap {
	switch ns {
	case NamespaceMailboxList:
		return s.mailboxLists
	case NamespaceMessageList:
		return s.messageLists
	default:
		return s.outboxes
	}
}

// removeListener drops the first registry entry matching l, preserving the
// order of the rest.
func (s *Service) removeListener(l Listener) {
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(
				s.listeners[:i], s.listeners[i+1:]...,
			)
			return
		}
	}
}

// notifyStatusChanged fans a status-change event out to every listener, in
// registration order.
func (s *Service) notifyStatusChanged(accountID, mailboxID int64) {
	for _, l := range s.listeners {
		l.OnRefreshStatusChanged(accountID, mailboxID)
	}
}

// reportError records the latest error and fans an error event out to every
// listener.
func (s *Service) reportError(accountID, targetID int64, opErr error) {
	msg := opErr.Error()
	s.lastError = fn.Some(msg)

	for _, l := range s.listeners {
		l.OnMessagingError(accountID, targetID, msg)
	}
}

// Ensure Service implements actor.Behavior.
var _ actor.Behavior[CoordMsg, CoordResponse] = (*Service)(nil)
