package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-signals-bot/internal/config"
	"telegram-signals-bot/internal/domain/ports/repository"
	pg "telegram-signals-bot/internal/infra/db/postgres"
	"telegram-signals-bot/internal/infra/logging"
	"telegram-signals-bot/internal/infra/metrics"
	red "telegram-signals-bot/internal/infra/redis"
	"telegram-signals-bot/internal/infra/sched"
	"telegram-signals-bot/internal/infra/store/memory"
	tele "telegram-signals-bot/internal/infra/telegram"
	"telegram-signals-bot/internal/infra/web"
	"telegram-signals-bot/internal/infra/worker"
	"telegram-signals-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory store, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- User store ----
	var users repository.UserStore
	if cfg.Runtime.Dev {
		users = memory.New()
		logger.Info().Msg("using in-memory user store")
	} else {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		users = pg.NewUserStore(pool)
	}

	// ---- Redis ----
	var regState repository.RegistrationStateRepository
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		if !cfg.Runtime.Dev {
			logger.Fatal().Err(err).Msg("redis")
		}
		logger.Warn().Err(err).Msg("redis unavailable, registration flow disabled")
	} else {
		defer redisClient.Close()
		regState = red.NewRegistrationStateRepo(redisClient, cfg.Redis.TTL)
	}

	// ---- Fan-out pool ----
	pool := worker.NewPool(cfg.Scheduler.Workers)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Use cases ----
	lifecycleUC := usecase.NewLifecycleUseCase(users, cfg.Trial.Days, nil, logging.Component(logger, "lifecycle"))

	botAdapter, err := tele.NewRealBotAdapter(&cfg.Bot, lifecycleUC, regState, logging.Component(logger, "telegram"))
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	broadcastUC := usecase.NewBroadcastUseCase(users, botAdapter, pool, cfg.Scheduler.SendTimeout, logging.Component(logger, "broadcast"))
	signalUC := usecase.NewSignalUseCase(users, botAdapter, pool, cfg.Trial.BrokerLink, cfg.Scheduler.SendTimeout, nil, logging.Component(logger, "signals"))
	statsUC := usecase.NewStatsUseCase(users, nil, logging.Component(logger, "stats"))
	exportUC := usecase.NewExportUseCase(users, logging.Component(logger, "export"))
	reminderUC := usecase.NewReminderUseCase(users, botAdapter, cfg.Trial.BrokerLink, cfg.Scheduler.SendTimeout, nil, logging.Component(logger, "scheduler"))

	adminUC := usecase.NewAdminUseCase(
		cfg.Bot.AdminIDs,
		lifecycleUC,
		broadcastUC,
		signalUC,
		statsUC,
		exportUC,
		botAdapter,
		cfg.Scheduler.SendTimeout,
		logging.Component(logger, "admin"),
	)
	botAdapter.AttachAdmin(adminUC)

	// ---- Telegram polling ----
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Reminder scheduler ----
	reminderWorker := sched.NewReminderWorker(cfg.Scheduler.Interval, reminderUC, logger)
	go func() { _ = reminderWorker.Run(ctx) }()

	// ---- Operator API ----
	webServer := web.NewServer(&cfg.Web, primaryAdmin(cfg.Bot.AdminIDs), adminUC, users, logger)
	go func() {
		if err := webServer.ListenAndServe(cfg.Web.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("operator API stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}

// primaryAdmin is the caller identity attributed to operator API actions.
func primaryAdmin(ids []int64) int64 {
	if len(ids) > 0 {
		return ids[0]
	}
	return 0
}
