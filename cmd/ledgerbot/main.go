package main

import (
	"context"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerbot/internal/backend"
	"ledgerbot/internal/bot"
	"ledgerbot/internal/cache"
	"ledgerbot/internal/cli"
	"ledgerbot/internal/config"
	"ledgerbot/internal/conversation"
	"ledgerbot/internal/core"
	"ledgerbot/internal/health"
	"ledgerbot/internal/log"
	"ledgerbot/internal/ratelimit"
	"ledgerbot/internal/report"
	"ledgerbot/internal/session"
	"ledgerbot/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting ledgerbot")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	flow, err := conversation.ParseFlow(cfg.FlowVariant)
	if err != nil {
		logger.Error("Invalid flow variant", log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to build backend config", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "type", cfg.DataBackend)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.SessionMaxEntries, cfg.SessionIdleTimeout, nil)
	machine, err := conversation.NewMachine(flow, core.DefaultCatalog(), sessions, res.Store, logger)
	if err != nil {
		logger.Error("Failed to build conversation machine", log.FieldError, err)
		os.Exit(1)
	}
	reports := report.NewEngine(res.Store, cfg.CurrencySymbol, report.WithLogger(logger))

	tg, err := telegram.New(cfg.TelegramToken, logger)
	if err != nil {
		logger.Error("Failed to connect to Telegram", log.FieldError, err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{PerMinute: cfg.RateLimitPerMinute})
	dispatcher := bot.NewDispatcher(
		bot.NewHandler(machine, reports, tg),
		tg,
		bot.DispatcherConfig{Workers: cfg.DispatchWorkers, Limiter: limiter},
		logger,
	)

	caches := cache.NewManager(logger.WithComponent(log.ComponentSession).Logger)
	caches.Register(sessions)

	probes := health.NewServer(net.JoinHostPort("", cfg.HealthPort), logger)
	probes.AddCheck("storage", health.Check(res.Ping))

	ctx, cancel, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		limiter.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})
	defer cancel()

	logger.Info("Bot ready",
		"bot", tg.Username(),
		log.FieldFlow, flow.Name(),
		"backend", cfg.DataBackend,
		"workers", cfg.DispatchWorkers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return tg.Poll(gctx, dispatcher.Submit) })
	g.Go(func() error { return caches.Run(gctx, time.Minute) })
	if cfg.HealthPort != "" {
		g.Go(func() error { return probes.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
	}
	cancel()
	cli.WaitForShutdown(ctx, done)
}
