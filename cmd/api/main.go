package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/app"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/middleware"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	if cfg.Auth.Enabled {
		middleware.SetJWTSecret(cfg.Auth.JWTSecret)
		logger.Info("JWT authentication configured")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatalf("Failed to initialize clip pipeline: %v", err)
	}
	defer a.Close()
	a.Start()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server failed", err)
			}
		}()
	}

	api := NewAPI(a.Service, cfg, logger)

	var stopPrune chan struct{}
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		stopPrune = make(chan struct{})
		go limiter.Cleanup(10*time.Minute, stopPrune)
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(api, routerOptions{
		logger:  logger,
		limiter: limiter,
		auth:    cfg.Auth.Enabled,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorWithErr("Metrics server forced to shutdown", err)
		}
	}
	if stopPrune != nil {
		close(stopPrune)
	}

	logger.Info("Server stopped")
}
