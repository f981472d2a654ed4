// Package server initializes and runs the branchkeeper server: it selects
// the storage backend, wires the optional archive, notification and rate
// limiting integrations, and runs the HTTP API until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/dbx"
	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/archive"
	"github.com/dmitrijs2005/branchkeeper/internal/server/config"
	"github.com/dmitrijs2005/branchkeeper/internal/server/hierarchy"
	"github.com/dmitrijs2005/branchkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/branchkeeper/internal/server/notify"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/branchkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/branchkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	userService   *services.UserService
	branchService *services.BranchService
	limiter       echo.MiddlewareFunc
	closers       []func() error
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	var (
		db dbx.DBTX
		tx dbx.TxRunner
		rm repomanager.RepositoryManager
	)

	if c.DatabaseDSN == config.MemoryDSN {
		store := memory.NewStore()
		rm = repomanager.NewMemoryRepositoryManager(store)
		tx = store
		logger.Warn(ctx, "using in-memory storage, data will not survive a restart")
	} else {
		sqlDB, err := openDB(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, sqlDB.Close)

		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, sqlDB); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("db migrations error: %w", err)
		}
		db = sqlDB
		tx = dbx.SQLTxRunner{DB: sqlDB}
	}

	var archiver archive.Archiver = archive.Nop{}
	if c.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.Config{
			Region:    c.S3Region,
			Endpoint:  c.S3BaseEndpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
		})
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		archiver = a
	}

	var publisher notify.Publisher = notify.Nop{}
	if c.AMQPURL != "" {
		publisher = notify.NewAMQPPublisher(c.AMQPURL, c.AMQPQueue)
	}

	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		app.closers = append(app.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn(ctx, "redis unreachable, rate limiting fails open", "addr", c.RedisAddr, "error", err)
		}
		cancel()

		app.limiter = httpapi.NewRateLimiter(httpapi.RateLimit{
			Capacity:       c.RateLimitCapacity,
			RefillTokens:   c.RateLimitRefillTokens,
			RefillInterval: c.RateLimitRefillInterval,
			TTL:            10 * time.Minute,
		}, rdb, logger)
	}

	engine := hierarchy.NewEngine(db, rm, hierarchy.Options{
		MaxConcurrency: c.MaxConcurrency,
		MaxDepth:       c.MaxDepth,
	}, logger)

	app.userService = services.NewUserService(db, tx, rm, logger)
	app.branchService = services.NewBranchService(db, rm, engine, archiver, publisher, logger)

	return app, nil
}

// Close releases the database and redis connections.
func (app *App) Close() error {
	var firstErr error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	app.closers = nil
	return firstErr
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddr, app.config.SecretKey, app.userService, app.branchService, app.limiter, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "closing resources", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
