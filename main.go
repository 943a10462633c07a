package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"blogging-platform/config"
	"blogging-platform/database"
	"blogging-platform/handlers"
	"blogging-platform/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file (default: ./config.yaml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}

	logger := newLogger(cfg.Log)

	manager := database.NewManager()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	err = manager.Connect(ctx, cfg.Database)
	cancel()
	if err != nil {
		logger.WithError(err).WithField("store", cfg.Database.Type).Fatal("connect to store")
	}
	logger.WithField("store", cfg.Database.Type).Info("store connected")

	tokens := utils.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if cfg.Auth.TokenTTL == 0 {
		logger.Warn("auth.token_ttl is 0: issued tokens never expire")
	}
	if !cfg.Auth.EnforceOwnership {
		logger.Warn("auth.enforce_ownership is off: any user can edit or delete any post or comment")
	}

	api := handlers.NewAPI(manager.Store(), tokens, cfg, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handlers.NewRouter(api, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop, stopCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopCancel()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server stopped")
		}
	case <-stop.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	if err := manager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("store shutdown")
	}
}
