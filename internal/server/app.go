// Package server initializes and runs the StudyHub backend: the
// document store, the HTTP API, the notification hub and the study
// reminder scheduler, with graceful shutdown on OS signals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/server/config"
	"github.com/studyhub-tz/studyhub/internal/server/files"
	"github.com/studyhub-tz/studyhub/internal/server/httpapi"
	"github.com/studyhub-tz/studyhub/internal/server/notify"
	"github.com/studyhub-tz/studyhub/internal/server/store"
	"github.com/studyhub-tz/studyhub/internal/server/users"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     store.DocumentStore
	hub       *notify.Hub
	scheduler *notify.Scheduler
	api       *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var st store.DocumentStore
	var err error
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		st, err = store.NewPostgresStore(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	hub := notify.NewHub(logger)
	us := users.NewService(st, c)
	fs := files.NewService(c)
	api := httpapi.NewServer(us, st, fs, hub, logger)

	return &App{
		config:    c,
		logger:    logger,
		store:     st,
		hub:       hub,
		scheduler: notify.NewScheduler(st, hub, logger),
		api:       api,
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		app.hub.Run(ctx.Done())
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.scheduler.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}
}
