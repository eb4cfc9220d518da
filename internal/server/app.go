// Package server wires and runs the application: storage backend with
// migrations, authentication services, session manager, and the HTTP server,
// with graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/avoronov/secretwall/internal/logging"
	"github.com/avoronov/secretwall/internal/server/auth"
	"github.com/avoronov/secretwall/internal/server/config"
	"github.com/avoronov/secretwall/internal/server/gateway"
	"github.com/avoronov/secretwall/internal/server/httpapi"
	"github.com/avoronov/secretwall/internal/server/metrics"
	"github.com/avoronov/secretwall/internal/server/secrets"
	"github.com/avoronov/secretwall/internal/server/sessions"
	"github.com/avoronov/secretwall/internal/server/storage"
	"github.com/avoronov/secretwall/internal/server/strategies"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *storage.PostgresManager
	http    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	sm, err := storage.NewPostgresManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repo := sm.Users()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sessionManager := sessions.NewManager(repo, cfg.SessionTTL)
	local := strategies.NewLocalStrategy(repo, logger)
	federated := strategies.NewFederatedStrategy(repo, auth.NewHMACVerifier([]byte(cfg.ProviderSecret)), logger)
	gw := gateway.New(local, federated, sessionManager, m, logger)
	sec := secrets.NewService(repo, logger)

	httpServer := httpapi.NewServer(cfg.EndpointAddrHTTP, gw, sec, reg, logger)

	return &App{config: cfg, logger: logger, storage: sm, http: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
