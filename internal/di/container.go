package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
	"github.com/samber/oops"

	accountRepo "tweetwatch/internal/modules/account/repository"
	accountService "tweetwatch/internal/modules/account/service"
	"tweetwatch/internal/modules/detect"
	"tweetwatch/internal/modules/dispatch"
	"tweetwatch/internal/modules/feed"
	"tweetwatch/internal/modules/monitor"
	"tweetwatch/internal/modules/ratelimit"
	"tweetwatch/internal/shared/config"
	httpServer "tweetwatch/internal/transport/http"
	"tweetwatch/internal/transport/telegram"
	"tweetwatch/internal/transport/twitterapi"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Account Registry
	do.Provide(injector, func(i do.Injector) (accountRepo.Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		registry, err := accountRepo.NewFileRegistry(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize account registry").Wrap(err)
		}
		return registry, nil
	})

	// Register Account State Store
	do.Provide(injector, func(i do.Injector) (accountRepo.StateStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		states, err := accountRepo.NewFileStateStore(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize state store").Wrap(err)
		}
		return states, nil
	})

	// Register Twitter API client
	do.Provide(injector, func(i do.Injector) (*twitterapi.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return twitterapi.New(cfg.TwitterAPIURL, cfg.TwitterAPIKey), nil
	})

	// Register Telegram Bot
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b, err := bot.New(cfg.TelegramBotToken)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Telegram Sender
	do.Provide(injector, func(i do.Injector) (*telegram.Sender, error) {
		cfg := do.MustInvoke[*config.Config](i)
		b := do.MustInvoke[*bot.Bot](i)
		return telegram.New(b, cfg.TelegramChatID), nil
	})

	// Register Rate Governor
	do.Provide(injector, func(i do.Injector) (*ratelimit.Governor, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ratelimit.NewFromBudget(cfg.MonthlySpendCap, cfg.CostPerCall, cfg.RateBurst), nil
	})

	// Register Dispatcher
	do.Provide(injector, func(i do.Injector) (*dispatch.Dispatcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sender := do.MustInvoke[*telegram.Sender](i)
		return dispatch.New(sender, dispatch.Config{
			Attempts: cfg.RetryAttempts,
			BaseWait: cfg.RetryBase(),
			MaxWait:  cfg.RetryMax(),
		}), nil
	})

	// Register Monitor
	do.Provide(injector, func(i do.Injector) (*monitor.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		states := do.MustInvoke[accountRepo.StateStore](i)
		dispatcher := do.MustInvoke[*dispatch.Dispatcher](i)
		fetcher := do.MustInvoke[*twitterapi.Client](i)
		governor := do.MustInvoke[*ratelimit.Governor](i)

		return monitor.New(monitor.Config{
			Interval:      cfg.Interval(),
			JitterPercent: cfg.JitterPercent,
			Detector: detect.Options{
				StormCap: cfg.StormCap,
				Window:   cfg.FingerprintWindow,
			},
		}, states, dispatcher, fetcher, governor), nil
	})

	// Register Account Service
	do.Provide(injector, func(i do.Injector) (*accountService.Service, error) {
		registry := do.MustInvoke[accountRepo.Registry](i)
		states := do.MustInvoke[accountRepo.StateStore](i)
		verifier := do.MustInvoke[*twitterapi.Client](i)
		watcher := do.MustInvoke[*monitor.Service](i)
		return accountService.New(registry, states, verifier, watcher), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feed.Service, error) {
		dispatcher := do.MustInvoke[*dispatch.Dispatcher](i)
		return feed.New(dispatcher), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		accounts := do.MustInvoke[*accountService.Service](i)
		mon := do.MustInvoke[*monitor.Service](i)
		feedSvc := do.MustInvoke[*feed.Service](i)
		sender := do.MustInvoke[*telegram.Sender](i)
		server := httpServer.New(cfg, accounts, mon, feedSvc, sender)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx := context.Background()

	// Stop schedules first so no new sends are queued
	if mon, err := do.Invoke[*monitor.Service](injector); err == nil && mon != nil {
		mon.Stop()
	}

	if b, err := do.Invoke[*bot.Bot](injector); err == nil && b != nil {
		b.Close(ctx)
	}

	return nil
}
