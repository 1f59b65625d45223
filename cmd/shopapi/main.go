package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shop-bot/internal/config"
	"shop-bot/internal/handler"
	"shop-bot/internal/middleware"
	"shop-bot/internal/notify"
	"shop-bot/internal/service"
	"shop-bot/internal/storage"
	"shop-bot/pkg/logger"
	"shop-bot/pkg/redis"
)

func main() {
	cfg, err := config.LoadAPI()
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	var catalog service.ProductLister = pgStorage
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		catalog = storage.NewCachedProducts(pgStorage, redisClient, cfg.CatalogCacheTTL, zapLogger)
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.TelegramToken != "" {
		botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint,
			&http.Client{Timeout: cfg.NotifyTimeout})
		if err != nil {
			zapLogger.Fatal("Failed to create Telegram client", zap.Error(err))
		}
		notifier = notify.NewTelegramNotifier(botAPI, zapLogger)
	} else {
		zapLogger.Warn("TELEGRAM_TOKEN is not set, order notifications are disabled")
	}

	svc := service.New(pgStorage, catalog, notifier, service.Options{
		AdminChatID:   cfg.AdminChatID,
		NotifyTimeout: cfg.NotifyTimeout,
	}, zapLogger)
	defer svc.Close()

	h := handler.NewHandler(svc, zapLogger, middleware.NewAdminAuth(cfg.AdminAPIKey))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLogger.Info("Starting shop API server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zapLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		zapLogger.Info("Server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Application terminated with error", zap.Error(err))
	}
}
