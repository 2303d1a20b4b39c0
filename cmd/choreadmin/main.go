package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/choreadmin/internal/config"
	"github.com/dukerupert/choreadmin/internal/database"
	"github.com/dukerupert/choreadmin/internal/logging"
	"github.com/dukerupert/choreadmin/internal/seed"
	"github.com/dukerupert/choreadmin/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	forceSeed := flag.Bool("seed", false, "seed the database even if it already exists")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	_, statErr := os.Stat(cfg.Database.Path)
	newDB := errors.Is(statErr, os.ErrNotExist)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if newDB || *forceSeed {
		_, err := seed.Run(ctx, db, seed.Options{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminPassword: cfg.Seed.AdminPassword,
			AdminRole:     cfg.Admin.RequiredRole,
		}, logger.With("component", "seed"))
		if err != nil {
			logger.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(cfg, db, logger)

	if n, err := srv.SessionStore().DeleteExpired(ctx); err != nil {
		logger.Warn("failed to prune expired sessions", "error", err)
	} else if n > 0 {
		logger.Info("pruned expired sessions", "count", n)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", httpServer.Addr, "admin", cfg.Admin.Mount)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
