// Package server wires configuration, storage, services and transports
// together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/httpapi"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"

	gs "github.com/dmitrijs2005/gophnotes/internal/server/grpc"
)

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open(repomanager.DriverName, dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *services.TokenService
	auth        *services.AuthService
	notes       *services.NoteService
	exports     *services.ExportService
}

func NewApp(c *config.Config, l logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	tokens := services.NewTokenService(db, rm, c)
	notes := services.NewNoteService(db, rm)

	return &App{
		config:      c,
		logger:      l,
		db:          db,
		repomanager: rm,
		tokens:      tokens,
		auth:        services.NewAuthService(db, rm, tokens, c),
		notes:       notes,
		exports:     services.NewExportService(db, rm, notes, c),
	}, nil
}

// initDB checks connectivity, applies migrations and drops revocation
// records that can no longer matter.
func (app *App) initDB(ctx context.Context) error {
	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	n, err := app.tokens.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purging revoked tokens: %w", err)
	}
	app.logger.Info(ctx, "Database ready", "purged_revoked_tokens", n)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the JSON API and the gRPC health endpoint until ctx is done or
// a signal arrives. The health status switches to SERVING once the database
// is migrated.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	health := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger)
	run("grpc", health.Run)

	if err := app.initDB(ctx); err != nil {
		cancelFunc()
		wg.Wait()
		return errors.Join(append(errs, err)...)
	}
	health.SetServing(true)

	if app.config.ExportEnabled() {
		app.logger.Info(ctx, "Note export enabled", "bucket", app.config.S3Bucket)
	}

	handler := httpapi.NewHandler(app.auth, app.notes, app.exports, app.logger)
	run("http", httpapi.NewServer(app.config.EndpointAddrHTTP, handler.Routes(), app.logger).Run)

	wg.Wait()
	app.logger.Info(ctx, "App stopped")

	return errors.Join(errs...)
}
