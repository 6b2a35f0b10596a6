package accounts

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "syncd.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store, dbPath
}

func TestAccountRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	created, err := store.CreateAccount(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "alice@example.com", created.EmailAddress)
	require.Equal(t, "Alice", created.DisplayName)
	require.False(t, created.CreatedAt.IsZero())

	got, err := store.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestAccountNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.GetAccount(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.DeleteAccount(ctx, 999), ErrNotFound)
}

func TestDuplicateEmailRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.CreateAccount(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	_, err = store.CreateAccount(ctx, "alice@example.com", "Imposter")
	require.Error(t, err)
}

func TestListAccountIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	ids, err := store.ListAccountIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	a, err := store.CreateAccount(ctx, "a@example.com", "")
	require.NoError(t, err)
	b, err := store.CreateAccount(ctx, "b@example.com", "")
	require.NoError(t, err)

	ids, err = store.ListAccountIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID, b.ID}, ids)
}

func TestMailboxRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	acct, err := store.CreateAccount(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	inbox, err := store.CreateMailbox(ctx, acct.ID, "Inbox", MailboxInbox)
	require.NoError(t, err)
	require.Equal(t, MailboxInbox, inbox.Type)

	outbox, err := store.CreateMailbox(
		ctx, acct.ID, "Outbox", MailboxOutbox,
	)
	require.NoError(t, err)

	boxes, err := store.ListMailboxes(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, []Mailbox{*inbox, *outbox}, boxes)

	all, err := store.ListMailboxIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, map[int64]int64{
		inbox.ID:  acct.ID,
		outbox.ID: acct.ID,
	}, all)
}

func TestDeleteAccountCascadesMailboxes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	acct, err := store.CreateAccount(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	_, err = store.CreateMailbox(ctx, acct.ID, "Inbox", MailboxInbox)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAccount(ctx, acct.ID))

	all, err := store.ListMailboxIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, dbPath := newTestStore(t)

	acct, err := store.CreateAccount(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening runs the migrations again; they must be a no-op on an
	// up-to-date schema and the data must survive.
	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, acct.EmailAddress, got.EmailAddress)
}
