package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"class_schedule_bot/internal/app"
	"class_schedule_bot/internal/domain/schedule"
	"class_schedule_bot/internal/infra/config"
	idb "class_schedule_bot/internal/infra/database"
	"class_schedule_bot/internal/infra/httpserver"
	"class_schedule_bot/internal/infra/logger"
	"class_schedule_bot/internal/infra/scheduler"
	"class_schedule_bot/internal/infra/telegram"
	"class_schedule_bot/internal/infra/telegram/keyboards"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.TimeZone,
		"db_driver":   cfg.DatabaseDriver,
		"webhook":     cfg.WebhookMode(),
	}).Info("Class Schedule Bot starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.Migrate(db, logger.Component("migrate")); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database migrations")
	}
	mainLogger.Info("Database ready.")

	// Initialize Repositories
	chatRepo := idb.NewSQLChatRepository(db)
	statsRepo := idb.NewSQLStatsRepository(db)
	settingsRepo := idb.NewSQLSettingsRepository(db)
	pendingRepo := idb.NewSQLPendingRepository(db)

	timetable := schedule.Default()
	if cfg.TimetableFile != "" {
		timetable, err = schedule.LoadFile(cfg.TimetableFile)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not load timetable file")
		}
		mainLogger.WithField("file", cfg.TimetableFile).Info("Timetable loaded from file.")
	}

	// Initialize Telegram Bot
	var webhookURL string
	if cfg.WebhookMode() {
		webhookURL = cfg.BaseURL + cfg.WebhookPath()
	}
	bot, err := telegram.NewBot(telegram.BotOptions{
		Token:       cfg.TelegramToken,
		PollTimeout: cfg.LongPollTimeout,
		WebhookURL:  webhookURL,
	}, logger.Component("telebot"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Initialize Services
	scheduleService := app.NewScheduleService(chatRepo, statsRepo, telegramClient, timetable, cfg.Location, logger.Component("schedule_service")).
		WithMenu(keyboards.MainMenu)
	chatService := app.NewChatService(chatRepo, statsRepo, pendingRepo, cfg.StartCooldown, cfg.PendingTTL, logger.Component("chat_service"))
	adminService := app.NewAdminService(chatRepo, statsRepo, settingsRepo, telegramClient,
		app.AdminIdentity{TelegramID: cfg.AdminTelegramID, Username: cfg.AdminUsername},
		app.BroadcastOptions{Attempts: cfg.BroadcastTries, Backoff: cfg.BroadcastDelay},
		logger.Component("admin_service"))

	sendTime, err := adminService.LoadSendTime(ctx, cfg.SendClock)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not load send time")
	}

	// Initialize Scheduler
	scheduleScheduler := scheduler.NewScheduleScheduler(scheduleService, cfg.Location, sendTime, logger.Component("scheduler"))
	adminService.SetRescheduler(scheduleScheduler)
	if err := scheduleScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	// Register Handlers
	services := telegram.Services{
		Schedule: scheduleService,
		Chats:    chatService,
		Admin:    adminService,
		Location: cfg.Location,
	}
	handlerLogger := logger.Component("handlers")
	telegram.UseMiddleware(ctx, bot, chatService, handlerLogger)
	telegram.RegisterUserHandlers(ctx, bot, services, handlerLogger)
	telegram.RegisterAdminHandlers(ctx, bot, services, handlerLogger)
	telegram.RegisterMessageHandlers(ctx, bot, services, handlerLogger)
	mainLogger.Info("Command handlers registered.")

	// HTTP server: health, manual trigger, webhook
	routerOpts := httpserver.RouterOptions{
		Secret: cfg.WebhookSecret,
		Sender: scheduleService,
	}
	if cfg.WebhookMode() {
		routerOpts.WebhookPath = cfg.WebhookPath()
		routerOpts.Webhook = telegram.WebhookHandler(bot, logger.Component("webhook"))
	}
	httpServer := httpserver.NewServer(cfg.ListenAddr(), httpserver.NewRouter(routerOpts, logger.Component("http")), logger.Component("http"))

	mainLogger.WithFields(logrus.Fields{
		"send_time":      sendTime.String(),
		"next_daily_run": scheduleScheduler.NextDailyRun(),
	}).Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling.
	go bot.Start()
	httpErr := httpServer.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
	case err := <-httpErr:
		if err != nil {
			mainLogger.WithError(err).Error("HTTP server failed, shutting down")
		}
	}

	cancel()
	bot.Stop()
	scheduleScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	mainLogger.Info("Application shut down gracefully.")
}
