package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tutor-bot/internal/bot"
	"tutor-bot/internal/config"
	"tutor-bot/internal/database"
	"tutor-bot/internal/handlers"
	"tutor-bot/internal/scheduler"
	"tutor-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	loggerConfig := &logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	}
	zapLogger, err := logger.New(loggerConfig, logger.DefaultServiceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	loc, err := cfg.Location()
	if err != nil {
		zap.L().Fatal("Failed to load timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	zap.L().Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	b, err := bot.New(cfg.BotToken, db, loc)
	if err != nil {
		zap.L().Fatal("Failed to create bot", zap.Error(err))
	}

	var sched *scheduler.Scheduler
	timers := scheduler.NewTimers(func(p scheduler.Payload) { sched.OnFire(p) })
	sched, ctrl := scheduler.New(timers, db, b, loc, nil, zap.L())

	if err := ctrl.Recover(ctx); err != nil {
		zap.L().Fatal("Failed to recover lesson timers", zap.Error(err))
	}

	zap.L().Info("Bot started successfully")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ctrl.RunDailySummary(ctx, cfg.SummaryHour)
		return nil
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := b.API.GetUpdatesChan(u)

		for {
			select {
			case <-ctx.Done():
				b.API.StopReceivingUpdates()
				return nil
			case update, ok := <-updates:
				if !ok {
					return nil
				}
				handleUpdate(b, ctrl, update)
			}
		}
	})

	if err := g.Wait(); err != nil {
		zap.L().Fatal("Bot stopped", zap.Error(err))
	}
	zap.L().Info("Bot stopped")
}

func handleUpdate(b *bot.Bot, ctrl *scheduler.Controller, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			switch update.Message.Command() {
			case "start":
				handlers.HandleStart(b, update.Message)
			default:
				_ = b.SendMessage(update.Message.Chat.ID,
					"Неизвестная команда. Используйте /start.", nil)
			}
			return
		}
		handlers.HandleMessage(b, ctrl, update.Message)
	case update.CallbackQuery != nil:
		handlers.HandleCallbackQuery(b, ctrl, update.CallbackQuery)
	}
}
