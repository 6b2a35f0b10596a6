package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	btclog "github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"
	"github.com/voltmail/syncd/internal/accounts"
	"github.com/voltmail/syncd/internal/backend"
	"github.com/voltmail/syncd/internal/baselib/actor"
	"github.com/voltmail/syncd/internal/build"
	"github.com/voltmail/syncd/internal/config"
	"github.com/voltmail/syncd/internal/refresh"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon",
	Long: `Start the refresh coordination daemon. It opens the account
database, starts the coordinator, and drives two periodic loops: a staleness
sweep that refreshes mailboxes whose last refresh is older than the
auto-refresh interval, and a send sweep that flushes pending outgoing
messages for all accounts.`,
	RunE: runDaemon,
}

// loadConfig loads the YAML config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logDir != "" {
		cfg.Logging.Dir = logDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if cfg.Database.Path == "" {
		defaultPath, err := accounts.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.Database.Path = defaultPath
	}

	return cfg, nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	handlers, logCleanup, err := build.InitLogging(
		cfg.Logging.Level, cfg.Logging.Dir,
	)
	if err != nil {
		return err
	}
	defer logCleanup()

	log := build.NewSubLogger(handlers, "SYNC")
	accounts.UseLogger(build.NewSubLogger(handlers, accounts.Subsystem))
	actor.UseLogger(build.NewSubLogger(handlers, actor.Subsystem))
	backend.UseLogger(build.NewSubLogger(handlers, backend.Subsystem))
	refresh.UseLogger(build.NewSubLogger(handlers, refresh.Subsystem))

	store, err := accounts.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := backend.NewSimRunner(backend.Config{
		StepDelay: cfg.Backend.StepDelay.Std(),
		MidTicks:  cfg.Backend.MidTicks,
	})
	defer runner.Stop()

	actorSystem := actor.NewSystem()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 10*time.Second,
		)
		defer cancel()
		_ = actorSystem.Shutdown(shutdownCtx)
	}()

	coord, err := refresh.New(refresh.Config{
		Runner:              runner,
		Accounts:            store,
		AutoRefreshInterval: cfg.Refresh.AutoRefreshInterval.Std(),
		ActorID:             "refresh-coordinator",
		System:              actorSystem,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	err = coord.AddListener(ctx, &statusLogger{log: log})
	if err != nil {
		return err
	}

	log.InfoS(ctx, "syncd started",
		"version", build.Version(),
		"db", cfg.Database.Path,
		"auto_refresh_interval", cfg.Refresh.AutoRefreshInterval.Std())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return staleSweep(
			gctx, log, store, coord,
			cfg.Refresh.StaleSweepInterval.Std(),
		)
	})
	g.Go(func() error {
		return sendSweep(gctx, coord, cfg.Refresh.SendSweepInterval.Std())
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	log.InfoS(context.Background(), "syncd shut down")

	return err
}

// staleSweep periodically enumerates all mailboxes and requests a refresh
// for any whose last completed refresh has gone stale. Coalescing in the
// coordinator makes the sweep safe to run at any frequency.
func staleSweep(ctx context.Context, log btclog.Logger,
	store *accounts.Store, coord *refresh.Coordinator,
	interval time.Duration) error {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		boxes, err := store.ListMailboxIDs(ctx)
		if err != nil {
			log.ErrorS(ctx, "Stale sweep: list mailboxes", err)
			continue
		}

		for mailboxID, accountID := range boxes {
			stale, err := coord.IsMailboxStale(ctx, mailboxID)
			if err != nil {
				return err
			}
			if !stale {
				continue
			}

			accepted, err := coord.RequestMessageListRefresh(
				ctx, accountID, mailboxID,
			)
			if err != nil {
				return err
			}
			if accepted {
				log.DebugS(ctx, "Stale sweep: refresh started",
					"account_id", accountID,
					"mailbox_id", mailboxID)
			}
		}
	}
}

// sendSweep periodically flushes pending outgoing messages for every known
// account.
func sendSweep(ctx context.Context, coord *refresh.Coordinator,
	interval time.Duration) error {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			coord.SendPendingForAllAccounts(ctx)
		}
	}
}

// statusLogger logs coordinator events. It runs on the coordinator's own
// execution context, so it only logs and never blocks.
type statusLogger struct {
	log btclog.Logger
}

func (s *statusLogger) OnRefreshStatusChanged(accountID, mailboxID int64) {
	s.log.DebugS(context.Background(), "Refresh status changed",
		"account_id", accountID, "mailbox_id", mailboxID)
}

func (s *statusLogger) OnMessagingError(accountID, mailboxID int64,
	message string) {

	s.log.WarnS(context.Background(), "Messaging error", nil,
		"account_id", accountID, "mailbox_id", mailboxID,
		"message", message)
}
