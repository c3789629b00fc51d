// Package main contains the entrypoint of the after-hours chat relay.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edgard/chatrelay/internal/bot"
	"github.com/edgard/chatrelay/internal/bot/handlers"
	"github.com/edgard/chatrelay/internal/bot/tasks"
	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
	"github.com/edgard/chatrelay/internal/hours"
	"github.com/edgard/chatrelay/internal/logger"
	"github.com/edgard/chatrelay/internal/mailer"
	"github.com/edgard/chatrelay/internal/metrics"
	"github.com/edgard/chatrelay/internal/monitor"
	"github.com/edgard/chatrelay/internal/relay"
	"github.com/edgard/chatrelay/internal/reply"
	"github.com/edgard/chatrelay/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires all components, blocks until shutdown, and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)

	resolver, err := hours.NewResolver(cfg.Relay)
	if err != nil {
		log.Error("Invalid working hours configuration", "error", err)
		return 1
	}
	store := database.NewStore(db, log, database.WithLocation(resolver.Location()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	transport, err := mailer.NewTransport(ctx, cfg.Mail, log)
	if err != nil {
		log.Error("Failed to create mail transport", "provider", cfg.Mail.Provider, "error", err)
		return 1
	}
	sender := mailer.NewSender(cfg.Mail, transport, log)

	engine := relay.NewEngine(store, resolver, sender, cfg.Relay.DedupWindow, cfg.Relay.TaxiMarker, log)
	sweeper := relay.NewSweeper(store, resolver, sender, log)
	service := relay.NewService(engine, sweeper, &cfg.Relay, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Relay:    service,
		Composer: reply.NewComposer(cfg.Relay, resolver),
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var mon bot.Component
	if cfg.Monitor.Enabled {
		mon = monitor.NewServer(cfg.Monitor.Addr, monitor.NewRouter(store, registry, log), log)
	}

	app := bot.NewBot(log, tg, sched, mon)

	log.Info("Starting relay", "countries", resolver.Countries(), "mail_provider", transport.Name())
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Relay stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Relay stopped gracefully")
	return 0
}
