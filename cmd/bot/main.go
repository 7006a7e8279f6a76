/**
 * @description
 * This is the main entry point for the banking bot. It is responsible for
 * initializing configuration, the database connection, the GoCardless client,
 * the session manager, the Discord notifier, the consent flow and the cron
 * scheduler, then wiring everything together and running the startup state
 * machine: load the stored session, probe it against the provider, run the
 * consent flow when no usable session exists, and finally start the periodic
 * synchronization.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: .env loading for local development.
 * - internal packages for config, store, session, syncer, app, callback, notify.
 * - pkg/gocardless: the provider client.
 */

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/app"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/callback"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/config"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/notify"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/session"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/store"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/syncer"
	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load a local .env if present; the environment itself wins.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish the database connection pool.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Initialize dependencies.
	repository := store.NewPostgresRepository(dbpool)
	client := gocardless.NewClient("")
	manager := session.NewManager(client, repository, *cfg, logger)

	notifier, err := notify.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
	if err != nil {
		logger.Error("failed to initialize discord notifier", "error", err)
		os.Exit(1)
	}

	listener := callback.NewListener(cfg.CallbackPort, logger)
	flow := app.NewConsentFlow(manager, notifier, listener, cfg.CallbackTimeout, logger)

	// Startup path: load the stored credential and probe it; a missing or
	// rejected session sends the owner through the consent flow.
	cred, err := manager.Load(ctx)
	if err != nil {
		logger.Error("failed to read stored session", "error", err)
		os.Exit(1)
	}

	active := false
	if cred.Valid() {
		if _, err := client.Balances(ctx, cred.AccessToken, cfg.BankingAccountID); err != nil {
			logger.Warn("stored session rejected by provider", "error", err)
		} else {
			logger.Info("stored session loaded")
			active = true
		}
	}

	if !active {
		cred, err = flow.Run(ctx)
		if err != nil {
			logger.Error("no session and reconnection failed", "error", err)
			os.Exit(1)
		}
	}

	logBalances(ctx, client, cfg, cred.AccessToken, logger)

	// Periodic synchronization.
	synchronizer := syncer.New(
		app.SessionProvider{Manager: manager, Flow: flow},
		client,
		repository,
		cfg.BankingAccountID,
		logger,
	)
	jobs := app.NewJobs(synchronizer, cfg.SyncWindow, cfg.SyncOverlap, logger)
	scheduler := app.NewScheduler(jobs, cfg.SyncSchedule, logger)

	scheduler.Start()
	logger.Info("scheduler started")

	// Catch up immediately instead of waiting for the first tick.
	go jobs.RunTransactionSync()

	// Wait for termination signal to gracefully shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}

// logBalances reports the account balances at startup, including the
// available figure once the authorized overdraft is counted in.
func logBalances(ctx context.Context, client *gocardless.Client, cfg *config.Config, accessToken string, logger *slog.Logger) {
	resp, err := client.Balances(ctx, accessToken, cfg.BankingAccountID)
	if err != nil {
		logger.Warn("failed to fetch balances", "error", err)
		return
	}

	overdraft, err := decimal.NewFromString(cfg.AuthorizedOverdraft)
	if err != nil {
		logger.Warn("invalid authorized overdraft figure", "value", cfg.AuthorizedOverdraft)
		overdraft = decimal.Zero
	}

	for _, balance := range resp.Balances {
		amount, err := decimal.NewFromString(balance.BalanceAmount.Amount)
		if err != nil {
			logger.Warn("unparseable balance amount", "type", balance.BalanceType, "value", balance.BalanceAmount.Amount)
			continue
		}
		logger.Info("account balance",
			"type", balance.BalanceType,
			"amount", amount.String(),
			"currency", balance.BalanceAmount.Currency,
			"with_overdraft", amount.Add(overdraft).String())
	}
}
