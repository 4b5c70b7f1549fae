package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/clinicdesk/appointment-scheduling/internal/api"
	"github.com/clinicdesk/appointment-scheduling/internal/auth"
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
	"github.com/clinicdesk/appointment-scheduling/internal/config"
	"github.com/clinicdesk/appointment-scheduling/internal/filestore"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("data_dir", cfg.DataDir))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := filestore.New(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("filestore init error", zap.Error(err))
	}

	authSvc, err := auth.NewService(cfg.DataDir, cfg.DoctorPassword, logger)
	if err != nil {
		logger.Fatal("auth init error", zap.Error(err))
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	bookingSvc := booking.NewService(store, logger, cfg.BookingWindowDays)

	router := api.NewRouter(api.RouterConfig{
		Booking: bookingSvc,
		Auth:    authSvc,
		Tokens:  tokens,
		Logger:  logger,
		DataDir: cfg.DataDir,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
