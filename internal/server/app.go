// Package server wires rollcalld: configuration, logging, tracing, the
// PostgreSQL roster, and the gRPC and HTTP front ends. Both servers share
// one root context and stop together on SIGINT, SIGTERM or SIGQUIT.
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
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/logging"
	"github.com/dmitrijs2005/rollcall/internal/server/config"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rollcall/internal/server/services"
	"github.com/dmitrijs2005/rollcall/internal/server/telemetry"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/rollcall/internal/server/grpc"
	hs "github.com/dmitrijs2005/rollcall/internal/server/http"
)

const tokenPurgeInterval = time.Hour

var (
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	newRepositoryManager = repomanager.NewPostgresRepositoryManager

	setupTracing = telemetry.Setup
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	userService     *services.UserService
	attendeeService *services.AttendeeService
	badgeService    *services.BadgeService
	hub             *hs.Hub
	shutdownTracing func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, "json", c.LogLevel)

	shutdownTracing, err := setupTracing(ctx, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := newRepositoryManager()
	hub := hs.NewHub(logger)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		repomanager:     m,
		userService:     services.NewUserService(db, m, c),
		attendeeService: services.NewAttendeeService(db, m, logger, hub, services.WithEventID(c.EventID)),
		badgeService:    services.NewBadgeService(db, m, c),
		hub:             hub,
		shutdownTracing: shutdownTracing,
	}, nil
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

// bootstrap migrates the schema, makes sure the staff accounts exist and
// optionally loads the demo roster.
func (app *App) bootstrap(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	accounts := []struct{ email, password, role string }{
		{app.config.AdminEmail, app.config.AdminPassword, common.RoleAdmin},
		{app.config.ScannerEmail, app.config.ScannerPassword, common.RoleScanner},
	}
	for _, a := range accounts {
		if a.email == "" {
			continue
		}
		if _, err := app.userService.EnsureUser(ctx, a.email, a.password, a.role); err != nil {
			return fmt.Errorf("bootstrap %s account: %w", a.role, err)
		}
	}

	if app.config.SeedDemo {
		n, err := app.attendeeService.SeedDemo(ctx)
		if err != nil {
			return fmt.Errorf("seed demo roster: %w", err)
		}
		app.logger.Info(ctx, "Demo roster loaded", "added", n)
	}

	return nil
}

func (app *App) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "purge refresh tokens", "error", err)
				continue
			}
			app.logger.Debug(ctx, "purged refresh tokens", "count", n)
		}
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.attendeeService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.config.CORSOrigins, app.logger,
		app.userService, app.attendeeService, app.badgeService, app.hub)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run bootstraps the database and serves until ctx is cancelled, a signal
// arrives, or either server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.bootstrap(ctx); err != nil {
		app.logger.Error(ctx, "bootstrap failed", "error", err)
		return err
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeTokens(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := app.shutdownTracing(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Warn(ctx, "shutdown", "error", err)
	}
}
