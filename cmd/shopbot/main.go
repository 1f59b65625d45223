package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"shop-bot/internal/bot"
	"shop-bot/internal/bot/state"
	"shop-bot/internal/config"
	"shop-bot/pkg/api"
	"shop-bot/pkg/logger"
	"shop-bot/pkg/redis"
)

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// Dialog state lives in Redis when configured, otherwise in process memory
	var store state.Store
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = state.NewRedisStore(redisClient, cfg.StateTTL)
	} else {
		zapLogger.Warn("REDIS_ADDR is not set, conversation state is kept in memory")
		store = state.NewMemoryStore()
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		zapLogger.Fatal("Failed to create Telegram client", zap.Error(err))
	}
	botAPI.Debug = cfg.Debug
	zapLogger.Info("Authorized on Telegram", zap.String("username", botAPI.Self.UserName))

	apiClient := api.NewClient(cfg.APIBaseURL, api.Options{
		Token:        cfg.APIKey,
		ReadTimeout:  cfg.ReadTimeout,
		OrderTimeout: cfg.OrderTimeout,
	}, zapLogger)

	tgBot := bot.New(bot.Dependencies{
		API:         botAPI,
		Backend:     apiClient,
		State:       store,
		Logger:      zapLogger,
		AdminIDs:    cfg.AdminIDs,
		PollTimeout: cfg.PollTimeout,
	})

	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	tgBot.Wait()
	zapLogger.Info("Bot shutdown gracefully")
}
