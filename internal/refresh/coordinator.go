package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/voltmail/syncd/internal/baselib/actor"
)

// CoordRef is the typed actor reference for the coordinator.
type CoordRef = actor.Ref[CoordMsg, CoordResponse]

// Config holds the dependencies and tuning for a Coordinator.
type Config struct {
	// Clock supplies time for completion stamps and staleness checks.
	// Defaults to SystemClock.
	Clock Clock

	// Runner performs the actual backend operations. Required.
	Runner OperationRunner

	// Accounts enumerates known accounts for SendPendingForAllAccounts.
	// Required.
	Accounts AccountLister

	// AutoRefreshInterval is how long a completed mailbox stays fresh.
	// Defaults to DefaultAutoRefreshInterval.
	AutoRefreshInterval time.Duration

	// MailboxSize is the coordinator actor's mailbox capacity.
	MailboxSize int

	// ActorID overrides the coordinator actor id, mainly for tests that
	// run several coordinators in one system.
	ActorID string

	// System, when non-nil, owns the coordinator actor: it is spawned
	// through the system (running immediately, making Start a no-op) and
	// participates in the system's deterministic Shutdown.
	System *actor.System
}

// Coordinator is the public face of the refresh-coordination subsystem. It
// accepts refresh and send requests, coalesces concurrent requests against
// the same target, answers activity and staleness queries, and fans backend
// results out to listeners.
//
// Internally every operation is marshaled onto a single actor goroutine, so
// the state machine never races: request methods Ask and wait for the
// outcome, while backend callbacks (which arrive on arbitrary runner
// goroutines) Tell and return immediately.
type Coordinator struct {
	cfg Config

	actor *actor.Actor[CoordMsg, CoordResponse]
	ref   CoordRef
}

// New creates a Coordinator and registers it as the runner's result-callback
// recipient. Start must be called before use.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("refresh: nil operation runner")
	}
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("refresh: nil account lister")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.AutoRefreshInterval <= 0 {
		cfg.AutoRefreshInterval = DefaultAutoRefreshInterval
	}
	if cfg.ActorID == "" {
		cfg.ActorID = "refresh-coordinator"
	}

	svc := NewService(cfg.Clock, cfg.Runner, cfg.AutoRefreshInterval)

	c := &Coordinator{cfg: cfg}
	if cfg.System != nil {
		var opts []actor.SpawnOption
		if cfg.MailboxSize > 0 {
			opts = append(
				opts, actor.WithMailboxSize(cfg.MailboxSize),
			)
		}
		c.ref = actor.Spawn(cfg.System, cfg.ActorID, svc, opts...)
	} else {
		c.actor = actor.New(actor.Config[CoordMsg, CoordResponse]{
			ID:          cfg.ActorID,
			Behavior:    svc,
			MailboxSize: cfg.MailboxSize,
		})
		c.ref = c.actor.Ref()
	}

	cfg.Runner.RegisterResultCallback(c)

	return c, nil
}

// Start launches the coordinator's actor goroutine. It is a no-op for a
// system-owned coordinator, whose actor runs from the moment New returns.
func (c *Coordinator) Start() {
	if c.actor != nil {
		c.actor.Start()
	}
}

// Stop terminates the coordinator. Requests issued afterwards fail with
// actor.ErrTerminated.
func (c *Coordinator) Stop() {
	if c.actor != nil {
		c.actor.Stop()
		return
	}

	c.cfg.System.StopActor(c.cfg.ActorID)
}

// Ref exposes the raw actor reference, mainly for tests.
func (c *Coordinator) Ref() CoordRef {
	return c.ref
}

// RequestMailboxListRefresh asks for a refresh of an account's mailbox list.
// It returns false without doing any work if a refresh of that mailbox list
// is already requested or running.
func (c *Coordinator) RequestMailboxListRefresh(ctx context.Context,
	accountID int64) (bool, error) {

	return c.askRequest(ctx, MailboxListRefreshMsg{AccountID: accountID})
}

// RequestMessageListRefresh asks for a refresh of a mailbox's messages. It
// returns false without doing any work if the mailbox is already being
// refreshed or loaded.
func (c *Coordinator) RequestMessageListRefresh(ctx context.Context,
	accountID, mailboxID int64) (bool, error) {

	return c.askRequest(ctx, MessageListRefreshMsg{
		AccountID: accountID,
		MailboxID: mailboxID,
	})
}

// RequestLoadMore asks for more messages in a mailbox. Gating is shared with
// RequestMessageListRefresh: the two are mutually exclusive per mailbox.
func (c *Coordinator) RequestLoadMore(ctx context.Context,
	accountID, mailboxID int64) (bool, error) {

	return c.askRequest(ctx, MessageListRefreshMsg{
		AccountID: accountID,
		MailboxID: mailboxID,
		LoadMore:  true,
	})
}

// RequestSendPending asks for transmission of an account's pending outgoing
// messages. It returns false if a send batch for the account is already in
// flight.
func (c *Coordinator) RequestSendPending(ctx context.Context,
	accountID int64) (bool, error) {

	return c.askRequest(ctx, SendPendingMsg{AccountID: accountID})
}

// SendPendingForAllAccounts issues RequestSendPending for every known
// account. The enumeration runs on its own goroutine so the caller is never
// blocked; each resulting request re-enters the coordinator through the
// normal serialized path.
func (c *Coordinator) SendPendingForAllAccounts(ctx context.Context) {
	go func() {
		if err := c.sendPendingForAllAccountsSync(ctx); err != nil {
			log.ErrorS(ctx, "Send pending for all accounts", err)
		}
	}()
}

// sendPendingForAllAccountsSync is the synchronous body of
// SendPendingForAllAccounts, split out for deterministic testing.
func (c *Coordinator) sendPendingForAllAccountsSync(
	ctx context.Context) error {

	ids, err := c.cfg.Accounts.ListAccountIDs(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	for _, id := range ids {
		if _, err := c.RequestSendPending(ctx, id); err != nil {
			return fmt.Errorf("send pending for account %d: %w",
				id, err)
		}
	}

	return nil
}

// IsMailboxStale reports whether the auto-refresh interval has elapsed since
// the mailbox's last completed refresh. A mailbox that has never completed
// is always stale. The coordinator schedules no timers itself; callers use
// this to decide when to trigger a background refresh.
func (c *Coordinator) IsMailboxStale(ctx context.Context,
	mailboxID int64) (bool, error) {

	return c.askBool(ctx, StaleQueryMsg{MailboxID: mailboxID})
}

// IsMailboxListRefreshing reports whether the account's mailbox list is
// active (requested or refreshing).
func (c *Coordinator) IsMailboxListRefreshing(ctx context.Context,
	accountID int64) (bool, error) {

	snap, err := c.StatusSnapshot(ctx, NamespaceMailboxList, accountID)
	if err != nil {
		return false, err
	}

	return snap.IsActive(), nil
}

// IsMessageListRefreshing reports whether the mailbox's message list is
// active.
func (c *Coordinator) IsMessageListRefreshing(ctx context.Context,
	mailboxID int64) (bool, error) {

	snap, err := c.StatusSnapshot(ctx, NamespaceMessageList, mailboxID)
	if err != nil {
		return false, err
	}

	return snap.IsActive(), nil
}

// IsSending reports whether a send batch for the account is active.
func (c *Coordinator) IsSending(ctx context.Context,
	accountID int64) (bool, error) {

	snap, err := c.StatusSnapshot(ctx, NamespaceOutbox, accountID)
	if err != nil {
		return false, err
	}

	return snap.IsActive(), nil
}

// IsAnyMailboxListRefreshing reports whether any mailbox list refresh is
// active.
func (c *Coordinator) IsAnyMailboxListRefreshing(
	ctx context.Context) (bool, error) {

	return c.askBool(ctx, ActivityQueryMsg{Scope: ScopeMailboxLists})
}

// IsAnyMessageListRefreshing reports whether any message list refresh is
// active.
func (c *Coordinator) IsAnyMessageListRefreshing(
	ctx context.Context) (bool, error) {

	return c.askBool(ctx, ActivityQueryMsg{Scope: ScopeMessageLists})
}

// IsAnySending reports whether any send batch is active.
func (c *Coordinator) IsAnySending(ctx context.Context) (bool, error) {
	return c.askBool(ctx, ActivityQueryMsg{Scope: ScopeSends})
}

// IsAnyActive reports whether anything at all is refreshing or sending.
func (c *Coordinator) IsAnyActive(ctx context.Context) (bool, error) {
	return c.askBool(ctx, ActivityQueryMsg{Scope: ScopeAll})
}

// LastErrorMessage returns the most recently recorded error message across
// all namespaces, or None. It is a single overwritten slot; callers that
// need per-target errors must observe OnMessagingError events instead.
func (c *Coordinator) LastErrorMessage(
	ctx context.Context) (fn.Option[string], error) {

	resp, err := actor.AskAwait(ctx, c.ref, CoordMsg(LastErrorQueryMsg{}))
	if err != nil {
		return fn.None[string](), err
	}

	return resp.(LastErrorResponse).Message, nil
}

// StatusSnapshot returns a read-only copy of one target's Status.
func (c *Coordinator) StatusSnapshot(ctx context.Context, ns Namespace,
	targetID int64) (StatusSnapshot, error) {

	resp, err := actor.AskAwait(ctx, c.ref, CoordMsg(StatusQueryMsg{
		Namespace: ns,
		TargetID:  targetID,
	}))
	if err != nil {
		return StatusSnapshot{}, err
	}

	return resp.(StatusResponse).Snapshot, nil
}

// AddListener appends a listener to the registry. A nil listener is a
// programming error and is rejected immediately.
func (c *Coordinator) AddListener(ctx context.Context, l Listener) error {
	if l == nil {
		return ErrNilListener
	}

	_, err := actor.AskAwait(ctx, c.ref, CoordMsg(AddListenerMsg{
		Listener: l,
	}))

	return err
}

// RemoveListener removes a listener from the registry. A nil listener is
// rejected immediately; removing a listener that was never added is a no-op.
func (c *Coordinator) RemoveListener(ctx context.Context, l Listener) error {
	if l == nil {
		return ErrNilListener
	}

	_, err := actor.AskAwait(ctx, c.ref, CoordMsg(RemoveListenerMsg{
		Listener: l,
	}))

	return err
}

// OnMailboxListProgress implements ResultCallback. It marshals the report
// onto the coordinator goroutine and returns immediately.
func (c *Coordinator) OnMailboxListProgress(opErr error, accountID int64,
	progress int) {

	c.ref.Tell(context.Background(), MailboxListProgressMsg{
		Err:       opErr,
		AccountID: accountID,
		Progress:  progress,
	})
}

// OnMailboxProgress implements ResultCallback.
func (c *Coordinator) OnMailboxProgress(opErr error, accountID,
	mailboxID int64, progress int) {

	c.ref.Tell(context.Background(), MessageListProgressMsg{
		Err:       opErr,
		AccountID: accountID,
		MailboxID: mailboxID,
		Progress:  progress,
	})
}

// OnSendProgress implements ResultCallback. The sentinel wire convention is
// decoded into a tagged SendEvent here, at the boundary, before the report
// reaches the core.
func (c *Coordinator) OnSendProgress(opErr error, accountID,
	messageID int64, progress int) {

	c.ref.Tell(context.Background(), SendProgressMsg{
		Err:       opErr,
		AccountID: accountID,
		Event:     sendEventFromWire(messageID, progress),
	})
}

// askRequest runs one of the request messages and unpacks the outcome.
func (c *Coordinator) askRequest(ctx context.Context,
	msg CoordMsg) (bool, error) {

	resp, err := actor.AskAwait(ctx, c.ref, msg)
	if err != nil {
		return false, err
	}

	return resp.(RequestOutcome).Accepted, nil
}

// askBool runs a boolean query message.
func (c *Coordinator) askBool(ctx context.Context,
	msg CoordMsg) (bool, error) {

	resp, err := actor.AskAwait(ctx, c.ref, msg)
	if err != nil {
		return false, err
	}

	return resp.(BoolResponse).Value, nil
}

// Ensure Coordinator implements the backend callback interface.
var _ ResultCallback = (*Coordinator)(nil)
