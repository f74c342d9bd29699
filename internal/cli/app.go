// Package cli is the command-line front end: it wires the local store, the
// Snippets Guru client and the sync services, and exposes them as
// subcommands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/snippets-guru/internal/config"
	"github.com/sakif/snippets-guru/internal/credential"
	"github.com/sakif/snippets-guru/internal/event"
	"github.com/sakif/snippets-guru/internal/guru"
	sqliteRepo "github.com/sakif/snippets-guru/internal/repository/sqlite"
	"github.com/sakif/snippets-guru/internal/scheduler"
	"github.com/sakif/snippets-guru/internal/service"
)

// App holds the wired services the commands run against.
type App struct {
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger

	Client   *guru.Client
	Tokens   *credential.Cached
	Snippets *service.SnippetService
	Sync     *service.SyncService
	Accounts *service.AccountService
	Settings *service.SettingsService

	db    *sqliteRepo.DB
	sched *scheduler.Scheduler
}

// Options lets tests replace the HTTP client.
type Options struct {
	HTTPClient guru.Doer
}

// NewApp opens the local database and wires every service. The token
// precedence is SNIPPETS_GURU_AUTH_TOKEN, then the stored setting.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("cli: creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("cli: opening database: %w", err)
	}

	tokens := credential.NewCached(
		credential.NewChain(credential.Static(cfg.AuthToken), credential.NewSettings(db, logger)),
		credential.DefaultTTL,
	)

	client, err := guru.New(guru.Config{BaseURL: cfg.BaseURL, HTTPClient: opts.HTTPClient}, tokens, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cli: %w", err)
	}

	bus := event.NewBus(logger)
	sched := scheduler.New(logger)

	snippets := service.NewSnippetService(db, db, bus, logger)
	accounts := service.NewAccountService(client, tokens, db, logger)
	syncer := service.NewSyncService(snippets, db, db, client.Snippets(), accounts, sched, logger,
		service.SyncOptions{PushDelay: cfg.PushDelay})
	syncer.Register(bus)

	return &App{
		Ctx:      ctx,
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Tokens:   tokens,
		Snippets: snippets,
		Sync:     syncer,
		Accounts: accounts,
		Settings: service.NewSettingsService(db, logger),
		db:       db,
		sched:    sched,
	}, nil
}

// Close lets scheduled pushes finish, then closes the database. Pushes still
// waiting when ctx is cancelled are dropped.
func (a *App) Close() error {
	if n := a.sched.Pending(); n > 0 {
		a.Logger.Info("waiting for scheduled pushes", slog.Int("pending", n))
	}

	done := make(chan struct{})
	go func() {
		a.sched.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-a.Ctx.Done():
	}
	a.sched.Stop()

	return a.db.Close()
}
