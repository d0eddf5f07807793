// Package server wires the todovault service together: key manager, field
// cipher, task store, REST API and gRPC health endpoint, and runs them until
// a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todovault/internal/cryptox"
	"github.com/dmitrijs2005/todovault/internal/keys"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/config"
	"github.com/dmitrijs2005/todovault/internal/server/httpapi"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todovault/internal/server/services"

	gs "github.com/dmitrijs2005/todovault/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	keys    *keys.Manager
	store   *repomanager.Manager
	service *services.TaskService
}

// NewApp loads the master key and opens the task store. A key that cannot be
// loaded or created is fatal: the returned error wraps common.ErrKeyUnavailable.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	alg, err := cryptox.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	ks, err := NewKeyStore(initCtx, c)
	if err != nil {
		return nil, fmt.Errorf("key store init error: %w", err)
	}
	km := keys.NewManager(ks, logger)
	key, err := km.Obtain(initCtx)
	if err != nil {
		return nil, err
	}
	cipher, err := cryptox.New(key, alg)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	store, err := repomanager.Open(initCtx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	svc := services.NewTaskService(store.Tasks, cipher, km, logger)
	return &App{config: c, logger: logger, keys: km, store: store, service: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.service, httpapi.RouterOptions{
		RequestTimeout: app.config.RequestTimeout,
		AllowedOrigins: app.config.AllowedOrigins,
	}, app.logger)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.config.ShutdownTimeout, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.service.Ping, app.logger)

	pingCtx, cancel := context.WithTimeout(ctx, app.config.RequestTimeout)
	if err := app.service.Ping(pingCtx); err != nil {
		app.logger.Warn(ctx, "task store not reachable yet", "error", err)
	} else {
		s.SetServing(true)
	}
	cancel()

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is canceled, a shutdown signal arrives or a server
// fails, then closes the task store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.store.Driver, "algorithm", app.config.Algorithm)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.store.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "closing task store", "error", err)
	}
	app.logger.Info(closeCtx, "App stopped")
}

// Service exposes the task service for in-process callers such as the
// operator CLI.
func (app *App) Service() *services.TaskService { return app.service }

// Close releases the task store without running the servers.
func (app *App) Close(ctx context.Context) error { return app.store.Close(ctx) }
