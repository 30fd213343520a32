package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	echoapi "go.pilab.hu/indexer/api/echo"
	ginapi "go.pilab.hu/indexer/api/gin"
	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/internal/app"
	"go.pilab.hu/indexer/internal/audit"
	"go.pilab.hu/indexer/internal/metrics"
	"go.pilab.hu/indexer/internal/server"
	"go.pilab.hu/indexer/internal/store"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/tracing"
)

var (
	appLogger      log.Logger
	httpServer     *http.Server
	tracerProvider *sdktrace.TracerProvider
	stores         *store.Provider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := log.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Warn().
			Str("configured_log_level", cfg.LogLevel).
			Str("fallback_log_level", logLevel.String()).
			Err(parseErr).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	if err := cfg.Validate(); err != nil {
		appLogger.Fatal(ctx, "Invalid configuration", err)
	}
	appLogger.Info(ctx, "Starting indexer...", log.Fields{
		"http_port":        cfg.HTTPPort,
		"http_router":      cfg.HTTPRouter,
		"store_driver":     cfg.StoreDriver,
		"identity_mode":    cfg.IdentityMode,
		"token_url":        cfg.GoogleTokenURL,
		"indexing_url":     cfg.GoogleIndexingURL,
		"upstream_timeout": cfg.UpstreamTimeout.String(),
		"log_level":        cfg.LogLevel,
		"otel_service":     cfg.OtelServiceName,
	})

	tracerProvider, err = tracing.InitTracerProvider(cfg.OtelServiceName, nil)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to register metrics", err)
	}
	auditLogger := audit.New(cfg.OtelServiceName, os.Stdout)

	// --- Dependencies ---
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	stores, err = store.Open(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open store", err, log.Fields{"driver": cfg.StoreDriver})
	}
	appLogger.Info(ctx, "Store ready", log.Fields{"driver": stores.Driver})

	verifier, err := app.NewVerifier(cfg, nil)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create identity verifier", err)
	}
	indexingService := app.NewIndexingService(cfg, stores, verifier, app.Components{
		Logger:  appLogger,
		Metrics: m,
		Audit:   auditLogger,
	})
	opts := server.Options{Gatherer: registry, Health: stores.Ping}

	var handler http.Handler
	switch cfg.HTTPRouter {
	case config.RouterEcho:
		handler = server.NewEchoRouter(appLogger, echoapi.NewIndexingAPI(indexingService, appLogger), opts)
	default:
		handler = server.NewRouter(cfg, appLogger, ginapi.NewIndexingAPI(indexingService, appLogger), opts)
	}
	httpServer = server.NewHTTPServer(cfg, handler)
	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server (%s) listening on port %s", cfg.HTTPRouter, cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}
	if err := stores.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Store close error", err)
	}

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
