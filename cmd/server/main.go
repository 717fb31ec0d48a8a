package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"

	accountService "tweetwatch/internal/modules/account/service"
	"tweetwatch/internal/di"
	"tweetwatch/internal/modules/monitor"
	"tweetwatch/internal/shared/config"
	httpServer "tweetwatch/internal/transport/http"
)

func main() {
	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	// Get services from DI container
	cfg := do.MustInvoke[*config.Config](injector)
	accounts := do.MustInvoke[*accountService.Service](injector)
	mon := do.MustInvoke[*monitor.Service](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	// Start monitoring the enabled accounts
	if cfg.AutoStart {
		handles, err := accounts.EnabledHandles()
		if err != nil {
			slog.Error("Failed to load monitored accounts", "error", err)
			os.Exit(1)
		}
		mon.Start(handles)
	}

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("tweetwatch started", "port", cfg.HTTPPort, "auto_start", cfg.AutoStart)
	slog.Info("Press Ctrl+C to stop")

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	slog.Info("Shutting down...")
}
