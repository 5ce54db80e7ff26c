// Package server initializes and runs the application server. It wires
// the storage backends, the services and the HTTP API, and handles
// graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dealkeeper/internal/logging"
	"github.com/dmitrijs2005/dealkeeper/internal/server/config"
	"github.com/dmitrijs2005/dealkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/dealkeeper/internal/server/services"
	"github.com/dmitrijs2005/dealkeeper/internal/server/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage storage.Manager
	server  *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	sm, err := storage.NewPostgresRedisManager(cfg.DatabaseDSN, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	us := services.NewUserService(sm.Conn(), sm.Credentials(), sm.Sessions(), cfg)
	ds := services.NewDealService(sm.Deals())
	rs := services.NewRedemptionService(sm.Deals(), sm.Redemptions())

	handler := httpapi.NewHandler(us, ds, rs, sm.Health, logger)
	srv := httpapi.NewServer(cfg.EndpointAddr, handler, []byte(cfg.SecretKey), sm.Sessions(), logger)

	return &App{config: cfg, logger: logger, storage: sm, server: srv}, nil
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
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}
}
