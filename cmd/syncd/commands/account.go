package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voltmail/syncd/internal/accounts"
)

var (
	// accountEmail is the email address for account add.
	accountEmail string

	// accountName is the display name for account add.
	accountName string

	// mailboxAccountID is the owning account for mailbox operations.
	mailboxAccountID int64

	// mailboxName is the display name for mailbox add.
	mailboxName string

	// mailboxType is the mailbox type for mailbox add.
	mailboxType string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts and mailboxes",
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a mail account",
	RunE:  runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts and their mailboxes",
	RunE:  runAccountList,
}

var mailboxAddCmd = &cobra.Command{
	Use:   "add-mailbox",
	Short: "Add a mailbox to an account",
	RunE:  runMailboxAdd,
}

// openStore opens the accounts store using the configured database path.
func openStore() (*accounts.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return accounts.Open(cfg.Database.Path)
}

func runAccountAdd(cmd *cobra.Command, _ []string) error {
	if accountEmail == "" {
		return fmt.Errorf("--email is required")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	acct, err := store.CreateAccount(
		context.Background(), accountEmail, accountName,
	)
	if err != nil {
		return err
	}

	fmt.Printf("Created account %d: %s\n", acct.ID, acct.EmailAddress)

	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	accts, err := store.ListAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accts) == 0 {
		fmt.Println("No accounts configured")
		return nil
	}

	for _, acct := range accts {
		fmt.Printf("%d\t%s\t%s\n",
			acct.ID, acct.EmailAddress, acct.DisplayName)

		boxes, err := store.ListMailboxes(ctx, acct.ID)
		if err != nil {
			return err
		}
		for _, box := range boxes {
			fmt.Printf("\t%d\t%s\t%s\n",
				box.ID, box.DisplayName, box.Type)
		}
	}

	return nil
}

func runMailboxAdd(cmd *cobra.Command, _ []string) error {
	if mailboxAccountID == 0 {
		return fmt.Errorf("--account is required")
	}
	if mailboxName == "" {
		return fmt.Errorf("--name is required")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	box, err := store.CreateMailbox(
		context.Background(), mailboxAccountID, mailboxName,
		accounts.MailboxType(mailboxType),
	)
	if err != nil {
		return err
	}

	fmt.Printf("Created mailbox %d: %s (%s)\n",
		box.ID, box.DisplayName, box.Type)

	return nil
}

func init() {
	accountAddCmd.Flags().StringVar(
		&accountEmail, "email", "", "Email address for the account",
	)
	accountAddCmd.Flags().StringVar(
		&accountName, "name", "", "Display name for the account",
	)

	mailboxAddCmd.Flags().Int64Var(
		&mailboxAccountID, "account", 0, "Owning account id",
	)
	mailboxAddCmd.Flags().StringVar(
		&mailboxName, "name", "", "Display name for the mailbox",
	)
	mailboxAddCmd.Flags().StringVar(
		&mailboxType, "type", string(accounts.MailboxRegular),
		"Mailbox type: inbox, outbox, sent, drafts, trash, regular",
	)

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(mailboxAddCmd)
}
