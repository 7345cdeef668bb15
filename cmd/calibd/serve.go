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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"calibration-qa-backend/internal/api"
	"calibration-qa-backend/internal/certificate"
	"calibration-qa-backend/internal/db"
	"calibration-qa-backend/internal/insight"
	"calibration-qa-backend/internal/mw"
	"calibration-qa-backend/internal/notification"
	"calibration-qa-backend/internal/qualification"
	"calibration-qa-backend/internal/scheduler"
	"calibration-qa-backend/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the due-date scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, appStore, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) must be configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.Seed {
		if err := db.Seed(ctx, appStore.DB(), logger); err != nil {
			return err
		}
	}

	var webpushOptions *webpush.Options
	var dispatcher scheduler.Dispatcher
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		dispatcher = notification.NewWorkerPool(cfg.WorkerPool.Size, appStore.DB(), webpushOptions, logger)
	} else {
		logger.Warn("VAPID keys are not configured; push notifications are disabled")
	}

	var generator insight.Generator
	if cfg.Insight.APIKey != "" {
		g, err := insight.NewGenAIGenerator(ctx, cfg.Insight.APIKey, cfg.Insight.Model)
		if err != nil {
			logger.Warn("Insight generator unavailable", zap.Error(err))
		} else {
			generator = g
			logger.Info("Insight generator ready", zap.String("generator", g.Name()))
		}
	}

	tokens, err := mw.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	handler := api.NewHandler(api.Deps{
		Store:         appStore,
		Workflow:      workflow.NewService(appStore, loc, logger),
		Certificates:  certificate.NewService(appStore, logger),
		Qualification: qualification.NewService(appStore, loc, logger),
		Insight:       insight.NewService(generator, cfg.Insight.CacheTTL, cfg.Insight.Timeout, logger),
		Tokens:        tokens,
		WebPush:       webpushOptions,
		Location:      loc,
		Log:           logger,
	})

	// Cached GET responses, cleaned up every two expirations
	responses := cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL)

	schedulerSvc := scheduler.NewService(cfg, appStore, dispatcher, logger)
	schedulerSvc.FlushOnChange(responses)
	go schedulerSvc.Run(ctx)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go limiter.RunJanitor(ctx, time.Minute, 10*time.Minute)

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(handler, limiter, responses, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("Shutdown signal received, stopping services...")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	logger.Info("Server gracefully stopped")
	return nil
}
