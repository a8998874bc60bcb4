// Package server assembles the vault: storage, services, the gRPC and HTTP
// transports and the failed-attempt sweeper.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/keycache"
	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/netx"
	"github.com/dmitrijs2005/ldbvault/internal/server/auth"
	"github.com/dmitrijs2005/ldbvault/internal/server/config"
	"github.com/dmitrijs2005/ldbvault/internal/server/httpapi"
	"github.com/dmitrijs2005/ldbvault/internal/server/lockout"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/memory"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ldbvault/internal/server/services"

	gs "github.com/dmitrijs2005/ldbvault/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = repomanager.OpenDB

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	proxies       *netx.TrustedProxies
	tracker       *lockout.Tracker
	authService   *services.AuthService
	serverService *services.ServerService
	backupService *services.BackupService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{Backend: c.LogBackend, Level: c.LogLevel, Format: c.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	proxies, err := netx.ParseTrustedProxies(c.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies error: %w", err)
	}

	var (
		db *sql.DB
		m  repomanager.RepositoryManager
	)
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		m = memory.NewInMemoryRepositoryManager()
	} else {
		db, err = openDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		m = pm
	}

	if c.MasterPassword == "" {
		logger.Warn(ctx, "master password is empty, admin operations are unprotected")
	}

	store, err := services.NewBackupStore(ctx, c)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("backup store init error: %w", err)
	}

	issuer := auth.NewIssuer(c.SecretKey, c.MasterPassword, c.SessionTokenValidityDuration, c.MasterTokenValidityDuration)
	tracker := lockout.NewTracker(db, m)
	cache := keycache.New(cryptox.Vault{}, c.CacheSize, c.CacheTTL)

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		proxies:       proxies,
		tracker:       tracker,
		authService:   services.NewAuthService(db, m, c, issuer, tracker),
		serverService: services.NewServerService(db, m, c, cache),
		backupService: services.NewBackupService(db, m, store),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.serverService, app.backupService).
		WithTrustedProxies(app.proxies)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.serverService, app.config.CORSOrigins).
		WithTrustedProxies(app.proxies)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a transport fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

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
		app.tracker.RunSweeper(ctx, app.config.SweepInterval, app.config.AttemptRetention, app.logger)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
