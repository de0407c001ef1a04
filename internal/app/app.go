// Package app assembles the ticket desk from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/api/rest"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/persistence"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/service"
	"github.com/spec-kit/ticket-desk/internal/storage"
	"github.com/spec-kit/ticket-desk/internal/worker"
)

// App is a fully wired instance. The session has already been restored
// when New returns.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Bus        events.Bus
	Sessions   *service.SessionService
	Tickets    *service.TicketService
	Dispatcher *rest.Dispatcher
	Client     *rest.Client

	store   storage.KV
	pingers []func(context.Context) error
	closers []func()
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	Clock clock.Clock
	Store storage.KV
}

// New opens the configured store and wires services on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	a := &App{Config: cfg, Logger: logger, store: opts.Store}
	if a.store == nil {
		if err := a.openStore(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	keys := storage.NewKeys(cfg.Store.Namespace)
	userRepo := repository.NewUserRepository(a.store, keys.Users, logger)
	ticketRepo := repository.NewTicketRepository(a.store, keys.Tickets, clk, logger)
	sessionRepo := repository.NewSessionRepository(a.store, keys.Session)

	a.Bus = events.NewInMemoryBus()
	worker.StartAuditWorker(service.NewAuditService(a.Bus, logger))

	a.Sessions = service.NewSessionService(service.SessionDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Hasher:      auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Bus:         a.Bus,
		Clock:       clk,
		Logger:      logger,
	})
	a.Tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Bus:        a.Bus,
		Clock:      clk,
		Logger:     logger,
	})

	a.Metrics = observability.NewMetrics()
	a.Dispatcher = rest.NewDispatcher(rest.RouteConfig{
		Sessions: a.Sessions,
		Tickets:  a.Tickets,
		Logger:   logger,
		Metrics:  a.Metrics,
	})
	a.Client = rest.NewClient(a.Dispatcher)

	if err := a.Sessions.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.store = storage.NewMemoryKV()

	case config.DriverFile:
		kv, err := storage.NewFileKV(cfg.Store.FileDir)
		if err != nil {
			return err
		}
		a.store = kv

	case config.DriverRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, a.Logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rdb.Close)
		a.pingers = append(a.pingers, rdb.Ping)
		a.store = storage.NewRedisKV(rdb.Client)

	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, a.Logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.pingers = append(a.pingers, pg.Ping)
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(pg.DB(), "postgres", a.Logger); err != nil {
				return err
			}
		}
		kv, err := storage.NewSQLKV(pg.DB(), storage.DialectPostgres)
		if err != nil {
			return err
		}
		a.store = kv

	case config.DriverSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, a.Logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		a.pingers = append(a.pingers, db.Ping)
		if cfg.SQLite.RunMigrations {
			if err := persistence.RunMigrations(db.DB, "sqlite3", a.Logger); err != nil {
				return err
			}
		}
		kv, err := storage.NewSQLKV(db.DB, storage.DialectSQLite)
		if err != nil {
			return err
		}
		a.store = kv

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	a.Logger.Debug("store opened", zap.String("driver", cfg.Store.Driver))
	return nil
}

// Ready checks that the backing store is reachable. In-process backends
// are always ready.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	for _, ping := range a.pingers {
		if err := ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
