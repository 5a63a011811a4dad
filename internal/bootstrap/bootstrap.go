package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cataloginadapter "tally/internal/modules/catalog/adapter/in"
	catalogoutadapter "tally/internal/modules/catalog/adapter/out"
	catalogservice "tally/internal/modules/catalog/service"
	catalogusecase "tally/internal/modules/catalog/usecase"
	ledgerinadapter "tally/internal/modules/ledger/adapter/in"
	ledgeroutadapter "tally/internal/modules/ledger/adapter/out"
	ledgerservice "tally/internal/modules/ledger/service"
	ledgerusecase "tally/internal/modules/ledger/usecase"
	trackinginadapter "tally/internal/modules/tracking/adapter/in"
	trackingoutadapter "tally/internal/modules/tracking/adapter/out"
	trackingservice "tally/internal/modules/tracking/service"
	trackingusecase "tally/internal/modules/tracking/usecase"
	"tally/internal/platform/clock"
	"tally/internal/platform/config"
	"tally/internal/platform/logging"
	"tally/internal/platform/sanitize"
	"tally/internal/platform/sqlitedb"
	uiapp "tally/internal/ui/app"
)

type App struct {
	Config      config.Config
	Logger      *slog.Logger
	TrackingCLI trackinginadapter.CLIHandler
	CatalogCLI  cataloginadapter.CLIHandler
	LedgerCLI   ledgerinadapter.CLIHandler

	db      *sql.DB
	logSink io.Closer
}

func New(cfg config.Config) (*App, error) {
	logger, logSink, err := logging.New(cfg.LogPath(), cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		_ = logSink.Close()
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, db: db, logSink: logSink}
	if err := app.wire(); err != nil {
		_ = app.release()
		return nil, err
	}
	return app, nil
}

func (a *App) wire() error {
	clk := clock.SystemClock{}
	san := sanitize.New(a.Config.Validation.MaxNameLength)

	catalogStore, err := catalogoutadapter.NewSQLiteCatalogStore(a.db)
	if err != nil {
		return fmt.Errorf("new catalog store: %w", err)
	}
	catalogUC := catalogusecase.NewInteractor(
		catalogservice.NewCatalogService(clk, san, catalogStore, a.Config.DefaultRateCents()),
	)

	taskStorage, err := trackingoutadapter.NewSQLiteStorage(a.db)
	if err != nil {
		return fmt.Errorf("new task storage: %w", err)
	}
	authority := trackingusecase.NewAuthority(
		clk,
		trackingoutadapter.NewTickerScheduler(),
		trackingservice.NewPersistenceCoordinator(taskStorage, san, a.Logger.With("component", "persistence")),
		trackingservice.NewBus(a.Logger.With("component", "bus")),
		catalogUC,
		san,
		a.Logger.With("component", "authority"),
		a.Config.TickInterval,
	)

	ledgerUC := ledgerusecase.NewInteractor(
		ledgerservice.NewLedgerService(
			clk,
			san,
			ledgeroutadapter.NewSQLiteTaskStore(a.db),
			max(ledgerservice.DefaultLiveWindow, 3*a.Config.TickInterval),
			a.Logger.With("component", "ledger"),
		),
		clk,
		ledgeroutadapter.NewYAMLEncoder(),
		ledgeroutadapter.NewMarkdownEncoder(),
	)

	a.TrackingCLI = trackinginadapter.NewCLIHandler(authority)
	a.CatalogCLI = cataloginadapter.NewCLIHandler(catalogUC)
	a.LedgerCLI = ledgerinadapter.NewCLIHandler(ledgerUC)

	stale, err := a.LedgerCLI.Stale(context.Background(), 0)
	if err != nil {
		return fmt.Errorf("check unfinished tasks: %w", err)
	}
	if len(stale) > 0 {
		a.Logger.Warn("unfinished tasks from an earlier run", "count", len(stale), "first_id", stale[0].ID)
	}
	return nil
}

// Close stops any running session so its final time is written, then
// releases the database and log file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.TrackingCLI.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop session: %w", err))
	}
	if err := a.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) release() error {
	var errs []error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	if a.logSink != nil {
		if err := a.logSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
	}
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App, compact bool) error {
	return uiapp.Run(ctx, app.TrackingCLI, app.LedgerCLI, app.CatalogCLI, uiapp.Options{
		Currency:  app.Config.Currency,
		Compact:   compact,
		AltScreen: true,
	})
}
