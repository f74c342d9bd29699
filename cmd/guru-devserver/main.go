package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/snippets-guru/internal/config"
	"github.com/sakif/snippets-guru/internal/server"
	"github.com/sakif/snippets-guru/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)

	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		DBPath:    cfg.DevDBPath,
		JWTSecret: cfg.JWTSecret,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.DevEmail != "" {
		err := srv.Register(context.Background(), service.RegisterInput{
			Username:         "dev",
			Email:            cfg.DevEmail,
			Password:         cfg.DevPassword,
			BillingActive:    true,
			BillingExpiredAt: time.Now().AddDate(1, 0, 0),
		})
		if err != nil {
			logger.Warn("dev account not created", slog.String("error", err.Error()))
		} else {
			logger.Info("dev account ready", slog.String("email", cfg.DevEmail))
		}
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
