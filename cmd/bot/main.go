package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/auth"
	"github.com/spec-kit/support-bot/internal/channel"
	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/conversation"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/persistence"
	"github.com/spec-kit/support-bot/internal/ratelimit"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/internal/router"
	"github.com/spec-kit/support-bot/internal/scheduler"
	"github.com/spec-kit/support-bot/internal/service"
	"github.com/spec-kit/support-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := postgres.PoolHandle()
	tickets := repository.NewTicketRepository(pool)
	bans := repository.NewBanRepository(pool)
	admins := repository.NewAdminRepository(pool)
	audit := repository.NewAuditRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	limiter := ratelimit.NewLimiter(cfg.RateLimit)
	spam := ratelimit.NewSpamDetector(cfg.Spam)
	wizards := conversation.NewStore()
	sessions := auth.NewSessionManager(auth.NewCredentials(cfg.Admin), admins, bans, logger)

	channels := channel.NewManager(logger)

	intake := service.NewIntakeService(service.IntakeDependencies{
		TicketRepo: tickets,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo: tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notifier := service.NewNotificationService(dispatcher, channels, cfg.Bot.EscalationTarget, logger)
	worker.StartNotificationWorker(notifier)

	bot := router.New(router.Dependencies{
		Cfg:        cfg.Bot,
		Logger:     logger,
		BanRepo:    bans,
		AdminRepo:  admins,
		AuditRepo:  audit,
		Spam:       spam,
		Sessions:   sessions,
		Wizards:    wizards,
		Intake:     intake,
		Lifecycle:  lifecycle,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Sender:     channels,
	})
	handle := func(ctx context.Context, msg domain.InboundMessage) {
		bot.HandleMessage(ctx, msg)
	}

	if cfg.Channels.Webhook.Enabled {
		dedup := persistence.NewMessageDedup(redis, cfg.Channels.Webhook.DedupTTL, logger)
		channels.Register(channel.NewWebhookChannel(cfg.App, cfg.Channels.Webhook, postgres, redis, dedup, metrics, handle, logger))
	}
	if cfg.Channels.Telegram.Enabled {
		telegram, err := channel.NewTelegramChannel(cfg.Channels.Telegram, handle, logger)
		if err != nil {
			logger.Fatal("init telegram channel", zap.Error(err))
		}
		channels.Register(telegram)
	}
	if channels.Empty() {
		logger.Fatal("no channel enabled")
	}

	var backup scheduler.BackupRunner
	if cfg.Postgres.BackupDir != "" && cfg.Postgres.DSN != "" {
		backup = persistence.NewPgDumpBackup(cfg.Postgres.DSN, cfg.Postgres.BackupDir, logger)
	}
	jobs := scheduler.New(cfg.Schedule, tickets, notifier, backup, logger)
	if err := jobs.Start(); err != nil {
		logger.Fatal("start scheduler", zap.Error(err))
	}
	defer jobs.Stop()

	errCh := channels.Start(ctx)
	logger.Info("support bot started",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
		zap.String("version", cfg.App.Version),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("channel terminated", zap.Error(err))
	}

	if err := channels.Stop(); err != nil {
		logger.Warn("channel shutdown incomplete", zap.Error(err))
	}
	logger.Info("support bot stopped")
}
