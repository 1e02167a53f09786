package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/delegate/internal/credential"
	httpapi "github.com/aussiebroadwan/delegate/internal/http"
	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/aussiebroadwan/delegate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the delegate service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	core         *Core
	verifier     *credential.Verifier
	consent      *consent.Pages
	housekeeping *HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "delegate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	core, err := OpenCore(context.Background(), cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.core = core

	pages, err := consent.New(cfg.ConsentBaseURL, nil)
	if err != nil {
		_ = core.Close()
		return nil, err
	}
	app.consent = pages
	app.verifier = credential.NewVerifier(credential.VerifierOptions{Metrics: core.Metrics})

	app.housekeeping = NewHousekeepingService(core.KV, app.logger, cfg.HousekeepingInterval)
	app.housekeeping.OnPurge = core.Metrics.ObservePurged

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("delegate service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"identity", app.core.Identity,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application. Writes still waiting for
// finality are abandoned when the grace period runs out; their transactions
// stay pending on the ledger.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down delegate service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.core.Close(); err != nil {
		app.logger.Error("error closing core", "error", err)
		return err
	}

	app.logger.Info("delegate service stopped")
	return nil
}

// Handler exposes the router, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.core.Signer,
		app.core.Identity,
		app.cfg.CredentialAudience,
		BuildVersion,
		app.core.DB,
		app.logger,
	)

	router.Registry = app.core.Registry
	router.Apps = app.core.Apps
	router.Sessions = app.core.Sessions
	router.IssuerOptions = credential.IssuerOptions{Logger: app.logger, Metrics: app.core.Metrics}
	router.Verifier = app.verifier
	router.Consent = app.consent
	router.Metrics = app.core.Metrics.Handler()
	if p, ok := app.core.KV.(httpapi.Pinger); ok {
		router.SessionHealth = p
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
