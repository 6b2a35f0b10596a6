package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voltmail/syncd/internal/refresh"
)

// ErrNotFound is returned when a requested account or mailbox does not
// exist.
var ErrNotFound = errors.New("not found")

// MailboxType classifies a mailbox by role.
type MailboxType string

const (
	// MailboxInbox is the account's inbox.
	MailboxInbox MailboxType = "inbox"

	// MailboxOutbox holds messages queued for sending.
	MailboxOutbox MailboxType = "outbox"

	// MailboxSent holds sent messages.
	MailboxSent MailboxType = "sent"

	// MailboxDrafts holds draft messages.
	MailboxDrafts MailboxType = "drafts"

	// MailboxTrash holds deleted messages.
	MailboxTrash MailboxType = "trash"

	// MailboxRegular is any other user folder.
	MailboxRegular MailboxType = "regular"
)

// Account is one configured mail account.
type Account struct {
	ID           int64
	EmailAddress string
	DisplayName  string
	CreatedAt    time.Time
}

// Mailbox is one folder within an account.
type Mailbox struct {
	ID          int64
	AccountID   int64
	DisplayName string
	Type        MailboxType
	CreatedAt   time.Time
}

// Store is the SQLite-backed account and mailbox registry. It provides the
// account enumeration the refresh coordinator needs and the mailbox
// enumeration the staleness sweep iterates.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store instance wrapping the given database
// connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateAccount inserts a new account and returns it with its assigned id.
func (s *Store) CreateAccount(ctx context.Context, emailAddress,
	displayName string) (*Account, error) {

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (email_address, display_name)
		VALUES (?, ?)`,
		emailAddress, displayName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account id: %w", err)
	}

	log.Debugf("Created account %d (%s)", id, emailAddress)

	return s.GetAccount(ctx, id)
}

// GetAccount fetches one account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email_address, display_name, created_at
		FROM accounts WHERE id = ?`,
		id,
	)

	var a Account
	err := row.Scan(&a.ID, &a.EmailAddress, &a.DisplayName, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return &a, nil
}

// ListAccounts returns all accounts ordered by id.
func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email_address, display_name, created_at
		FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(
			&a.ID, &a.EmailAddress, &a.DisplayName, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w",
				err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// ListAccountIDs returns the ids of all accounts, ordered. It implements the
// account enumeration the coordinator's send-all sweep uses.
func (s *Store) ListAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query account ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w",
				err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DeleteAccount removes an account and, through the schema's cascade, all of
// its mailboxes.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}

	return nil
}

// CreateMailbox inserts a new mailbox under an account and returns it with
// its assigned id.
func (s *Store) CreateMailbox(ctx context.Context, accountID int64,
	displayName string, typ MailboxType) (*Mailbox, error) {

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mailboxes (account_id, display_name, mailbox_type)
		VALUES (?, ?, ?)`,
		accountID, displayName, string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mailbox: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailbox id: %w", err)
	}

	return s.GetMailbox(ctx, id)
}

// GetMailbox fetches one mailbox by id.
func (s *Store) GetMailbox(ctx context.Context, id int64) (*Mailbox, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, display_name, mailbox_type, created_at
		FROM mailboxes WHERE id = ?`,
		id,
	)

	var m Mailbox
	err := row.Scan(&m.ID, &m.AccountID, &m.DisplayName, &m.Type,
		&m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mailbox %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mailbox: %w", err)
	}

	return &m, nil
}

// ListMailboxes returns all mailboxes of an account ordered by id.
func (s *Store) ListMailboxes(ctx context.Context,
	accountID int64) ([]Mailbox, error) {

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, display_name, mailbox_type, created_at
		FROM mailboxes WHERE account_id = ? ORDER BY id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mailboxes: %w", err)
	}
	defer rows.Close()

	var out []Mailbox
	for rows.Next() {
		var m Mailbox
		err := rows.Scan(&m.ID, &m.AccountID, &m.DisplayName,
			&m.Type, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mailbox: %w",
				err)
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// ListMailboxIDs returns the ids of all mailboxes across all accounts,
// each mapped to its owning account id. The daemon's staleness sweep
// iterates this.
func (s *Store) ListMailboxIDs(
	ctx context.Context) (map[int64]int64, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id FROM mailboxes ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mailbox ids: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var id, accountID int64
		if err := rows.Scan(&id, &accountID); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox id: %w",
				err)
		}
		out[id] = accountID
	}

	return out, rows.Err()
}

// Ensure Store implements the coordinator's account enumeration interface.
var _ refresh.AccountLister = (*Store)(nil)
