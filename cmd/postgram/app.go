package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/postgram/internal/db"
	"github.com/nkiryanov/postgram/internal/handlers"
	"github.com/nkiryanov/postgram/internal/logger"
	"github.com/nkiryanov/postgram/internal/repository"
	"github.com/nkiryanov/postgram/internal/repository/bolt"
	"github.com/nkiryanov/postgram/internal/repository/postgres"
	"github.com/nkiryanov/postgram/internal/service/auth"
	"github.com/nkiryanov/postgram/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/postgram/internal/service/user"
)

const (
	boltScheme   = "bolt://"
	shutdownWait = 5 * time.Second
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Release storage resources
	closeStorage func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the storage and run migrations if needed
	storage, closeStorage, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	})
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage)
	authService := auth.NewService(auth.Config{}, tokenManager, userService)

	mux := handlers.NewRouter(authService, userService, logger)

	return &ServerApp{
		ListenAddr:   c.ListenAddr,
		Handler:      mux,
		Logger:       logger,
		closeStorage: closeStorage,
	}, nil
}

// Pick storage by dsn scheme
func openStorage(ctx context.Context, dsn string) (repository.Storage, func(), error) {
	switch {
	case strings.HasPrefix(dsn, boltScheme):
		storage, err := bolt.New(strings.TrimPrefix(dsn, boltScheme))
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStorage(pool), pool.Close, nil

	default:
		return nil, nil, errors.New("unsupported database dsn, expected postgres:// or bolt://")
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

func (s *ServerApp) Close() {
	if s.closeStorage != nil {
		s.closeStorage()
	}
}
