package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"skillsight/internal/history"
	"skillsight/internal/observability"
	"skillsight/internal/validation"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if err := s.setupHistoryStore(); err != nil {
		return err
	}

	if err := s.setupRulesCatalog(om); err != nil {
		return err
	}

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	vaultClient, err := s.initializeVaultClient()
	if err != nil {
		return err
	}

	if err := s.configureTLS(httpServer, vaultClient, om); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHistoryStore connects the configured score history backend
func (s *Server) setupHistoryStore() error {
	cfg := s.AppConfig.History
	if !cfg.Enabled {
		s.Logger.Info("Score history disabled")
		return nil
	}

	switch cfg.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := history.NewRedisStore(ctx, history.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			TTL:         cfg.TTL,
			SeriesLimit: cfg.SeriesLimit,
		}, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect history store: %w", err)
		}
		s.History = store
		s.Logger.Info("Score history enabled", "backend", "redis", "addr", cfg.Redis.Addr)
	default:
		s.History = history.NewMemoryStore(int(cfg.SeriesLimit))
		s.Logger.Info("Score history enabled", "backend", "memory")
	}

	return nil
}

// setupRulesCatalog loads the catalog override file and starts the
// hot-reload watcher when configured. A broken file at startup is a
// configuration error; a broken file during reload keeps the previous
// catalog active.
func (s *Server) setupRulesCatalog(om *observability.ObservabilityManager) error {
	cfg := s.AppConfig.Rules
	if cfg.CatalogFile == "" {
		return nil
	}

	catalog := s.Validator.Catalog()
	if err := catalog.LoadFile(cfg.CatalogFile); err != nil {
		return fmt.Errorf("failed to load rules catalog: %w", err)
	}
	s.Logger.Info("Rules catalog loaded",
		"file", cfg.CatalogFile,
		"revision", catalog.Revision(),
		"form_types", len(catalog.FormTypes()))

	if !cfg.Watch {
		return nil
	}

	metrics := om.GetMetrics()
	onReload := func(revision int) {
		metrics.RecordBusinessMetric(context.Background(), "rules_reload", true, om,
			attribute.Int("revision", revision))
	}

	watcher := validation.NewCatalogWatcher(cfg.CatalogFile, catalog, cfg.DebounceDelay, onReload, s.Logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start rules catalog watcher: %w", err)
	}
	s.RulesWatcher = watcher
	s.Logger.Info("Rules catalog watcher started", "file", cfg.CatalogFile)

	return nil
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// When using TLS with certificate content, we need to use ListenAndServeTLS with empty strings
			// because the certificates are already loaded in the TLS config
			if s.TLSConfig.CertContent != "" || s.TLSConfig.KeyContent != "" {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
			}
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Wait for either a signal or server error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	// Create a context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop certificate manager if running
	if err := s.stopCertificateManager(); err != nil {
		s.Logger.LogError(err, "Failed to stop certificate manager")
	}

	// Stop rules catalog watcher if running
	if err := s.stopRulesWatcher(); err != nil {
		s.Logger.LogError(err, "Failed to stop rules catalog watcher")
	}

	// Close history store if connected
	s.closeHistoryStore()

	// Clean up rate limiter if enabled
	s.cleanupRateLimiter()

	// Attempt graceful shutdown of HTTP server
	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopCertificateManager stops the certificate manager if it's running
func (s *Server) stopCertificateManager() error {
	if s.CertificateManager != nil {
		return s.CertificateManager.Stop()
	}
	return nil
}

// stopRulesWatcher stops the rules catalog watcher if it's running
func (s *Server) stopRulesWatcher() error {
	if s.RulesWatcher != nil {
		return s.RulesWatcher.Stop()
	}
	return nil
}

// closeHistoryStore closes the history store connection
func (s *Server) closeHistoryStore() {
	if s.History == nil {
		return
	}
	if err := s.History.Close(); err != nil {
		s.Logger.LogError(err, "Failed to close history store")
		return
	}
	s.Logger.Info("History store closed")
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
