package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/checkin"
	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/config"
	"github.com/dmitrijs2005/rollcall/internal/client/directory"
	"github.com/dmitrijs2005/rollcall/internal/client/services"
	"github.com/dmitrijs2005/rollcall/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	api         client.Client
	authService services.AuthService
	syncService services.SyncService
	local       *directory.Directory
	station     *services.StationDirectory
	pipeline    *checkin.Pipeline
	lines       *bufio.Scanner
	out         io.Writer

	mu       sync.Mutex
	mode     Mode
	operator services.Operator
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		db.Close()
		return nil, err
	}

	local := directory.New(db, c.StationID, logger)
	if err := local.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	auth := services.NewAuthService(api, db)
	api.OnTokensRefreshed(func(s client.Session) {
		if err := auth.SaveSession(context.Background(), s); err != nil {
			logger.Error(context.Background(), "saving refreshed tokens failed", "error", err)
		}
	})

	a := &App{
		config:      c,
		logger:      logger.With("module", "cli"),
		db:          db,
		api:         api,
		authService: auth,
		syncService: services.NewSyncService(api, local, db, c.StationID, logger),
		local:       local,
		station:     services.NewStationDirectory(api, local, c.StationID, logger),
		lines:       bufio.NewScanner(os.Stdin),
		out:         &lockedWriter{w: os.Stdout},
		mode:        ModeOffline,
	}
	a.pipeline = checkin.NewPipeline(a.station, newConsoleNotifier(a.out),
		checkin.WithDebouncer(checkin.NewDebouncer(c.DebounceWindow)),
		checkin.WithLogger(logger))

	return a, nil
}

func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	a.station.SetOnline(mode == ModeOnline)
	if changed {
		a.logger.Info(ctx, "mode changed", "mode", mode)
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
	return changed
}

func (a *App) currentMode() Mode {
	// The station directory drops to offline on its own when a call fails.
	if !a.station.Online() {
		return ModeOffline
	}
	return ModeOnline
}

func (a *App) currentOperator() services.Operator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.operator
}

func (a *App) setOperator(op services.Operator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.operator = op
}

func (a *App) isLoggedIn() bool {
	return a.currentOperator().Email != ""
}

func (a *App) isAdmin() bool {
	return a.currentOperator().IsAdmin()
}

// Run restores the previous session, starts the connectivity watcher and
// serves the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)

	fmt.Fprintf(a.out, "Welcome to rollcall station %s (type 'help' for commands)\n", a.config.StationID)

	if op, ok, err := a.authService.Restore(ctx); err != nil {
		a.logger.Error(ctx, "restoring session failed", "error", err)
	} else if ok {
		a.setOperator(op)
		fmt.Fprintf(a.out, "Signed in as %s (%s)\n", op.Email, op.Role)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.lines)
}

func (a *App) close(ctx context.Context) {
	if err := a.authService.Close(ctx); err != nil {
		a.logger.Warn(ctx, "closing client failed", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(ctx, "closing database failed", "error", err)
	}
}

// checkOnline pings the server once and updates the mode. Coming back online
// with a session pushes the check-ins recorded while offline.
func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}

	wasOnline := a.station.Online()
	a.setMode(ctx, ModeOnline)
	if !wasOnline && a.isLoggedIn() {
		if rep, err := a.syncService.Sync(ctx); err != nil {
			a.logger.Warn(ctx, "background sync failed", "error", err)
		} else if rep.Pushed+rep.Conflicts+rep.Rejected > 0 {
			fmt.Fprintf(a.out, "Synced %d offline check-ins (%d conflicts, %d rejected)\n", rep.Pushed, rep.Conflicts, rep.Rejected)
		}
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	s := string(a.currentMode())
	if op := a.currentOperator(); op.Email != "" {
		s = op.Email + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}
