package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nahidhasan98/ghe-as3-relay/internal/as3"
	"github.com/nahidhasan98/ghe-as3-relay/internal/commit"
	"github.com/nahidhasan98/ghe-as3-relay/internal/config"
	"github.com/nahidhasan98/ghe-as3-relay/internal/ghe"
	"github.com/nahidhasan98/ghe-as3-relay/internal/handlers"
	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/metrics"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
	"github.com/nahidhasan98/ghe-as3-relay/internal/relay"
	"github.com/nahidhasan98/ghe-as3-relay/internal/server"
	"github.com/nahidhasan98/ghe-as3-relay/internal/store"
)

// application holds the configuration and services of one process
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *store.Store
	metrics *metrics.Metrics
	relay   *relay.Relay
	errChan chan error
}

func main() {
	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create a wait group for graceful shutdown
	var wg sync.WaitGroup

	// Initialize configuration and services
	app, err := initialize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Initialization error: %v\n", err)
		os.Exit(1)
	}
	defer app.store.Close()

	// Start the web server
	app.startWebServer(ctx, &wg)

	// Handle shutdown signals
	app.waitForShutdown(cancel, &wg)
}

func initialize(ctx context.Context) (*application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting GHE to AS3 relay")

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Environment values only seed the settings; stored values win after that
	settings, err := st.SeedSettings(ctx, models.Settings{
		GHEAddress:     cfg.GHE.Host,
		GHEAccessToken: cfg.GHE.AccessToken,
		Debug:          cfg.GHE.Debug,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	log.SetDebug(settings.Debug)

	m := metrics.New()

	dispatcher, err := as3.NewDispatcher(as3.Config{
		Host:               cfg.BigIP.Host,
		Username:           cfg.BigIP.Username,
		Password:           cfg.BigIP.Password,
		InsecureSkipVerify: cfg.BigIP.InsecureSkipVerify,
		Timeout:            cfg.BigIP.Timeout,
		Observe:            m.AS3Request,
	}, log.With("component", "as3"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create AS3 dispatcher: %w", err)
	}

	gheLog := log.With("component", "ghe")
	gheOpts := ghe.Options{InsecureSkipVerify: cfg.GHE.InsecureSkipVerify}
	newGHE := func(s models.Settings) (relay.GHE, error) {
		client, err := ghe.NewClient(s, gheOpts, gheLog)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	interpreter := commit.New(cfg.Relay.PathPolicy)
	log.Infof("Path policy: %s", interpreter.Policy())

	rl := relay.New(
		interpreter,
		newGHE,
		dispatcher,
		st,
		m,
		relay.Options{
			IssuesEnabled:   cfg.GHE.IssuesEnabled,
			IssueRepository: cfg.GHE.IssueRepository,
			ProcessTimeout:  cfg.Relay.ProcessTimeout,
		},
		log.With("component", "relay"),
	)

	return &application{
		cfg:     cfg,
		log:     log,
		store:   st,
		metrics: m,
		relay:   rl,
		errChan: make(chan error, 2),
	}, nil
}

func (a *application) startWebServer(ctx context.Context, wg *sync.WaitGroup) {
	wg.Go(func() {
		a.log.Info("Starting HTTP server...")

		// Initialize HTTP handlers
		httpHandler := handlers.New(a.relay, a.store, a.metrics, a.cfg.Relay.HistoryLimit, a.log)

		// Initialize and start HTTP server
		httpServer := server.New(httpHandler, a.metrics.Handler(), a.log)
		if err := httpServer.Start(a.cfg, a.errChan); err != nil {
			a.errChan <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}

		// Keep the server running until shutdown
		<-ctx.Done()
		a.log.Info("HTTP server shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error("Error during HTTP server shutdown", err)
		}

		// Pushes already acknowledged still run to completion
		if err := a.relay.Shutdown(shutdownCtx); err != nil {
			a.log.Error("In-flight pushes cancelled", err)
		}
	})
}

func (a *application) waitForShutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	// Wait for either service to fail or for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-a.errChan:
		a.log.Error("Service failed", err)
	case <-sigChan:
		a.log.Info("Received shutdown signal")
	}

	// Cancel context to signal goroutines to shutdown
	cancel()

	// Wait for all goroutines to finish
	wg.Wait()

	a.log.Info("Application stopped")
}
