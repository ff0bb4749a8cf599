package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Giancarlo174/cenit/internal/config"
	"github.com/Giancarlo174/cenit/internal/handler"
	"github.com/Giancarlo174/cenit/internal/infra/cache"
	"github.com/Giancarlo174/cenit/internal/infra/notify"
	"github.com/Giancarlo174/cenit/internal/infra/observability"
	"github.com/Giancarlo174/cenit/internal/infra/resilience"
	"github.com/Giancarlo174/cenit/internal/infra/supabase"
	"github.com/Giancarlo174/cenit/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("page_size", cfg.PageSize),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cenit")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	records := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)
	auth := supabase.NewAuthClient(httpClient, cfg.SupabaseURL, cfg.SupabaseAnonKey, logger)

	// --- Services ---
	notifier := notify.NewZapNotifier(logger)
	authSvc := service.NewAuthService(auth, records, logger)

	workspaces := cache.New[*service.Workspace](cfg.SessionTTL)
	manager := service.NewWorkspaceManager(service.WorkspaceDeps{
		Records:   records,
		Auth:      auth,
		Notifier:  notifier,
		Metrics:   metrics,
		JWTSecret: cfg.SupabaseJWTSecret,
		PageSize:  cfg.PageSize,
		Logger:    logger,
	}, workspaces)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		AuthSvc:   authSvc,
		Manager:   manager,
		Auth:      auth,
		JWTSecret: cfg.SupabaseJWTSecret,
		Metrics:   metrics,
		Logger:    logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
