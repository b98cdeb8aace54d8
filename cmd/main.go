package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gemini_bot/internal/config"
	"gemini_bot/internal/infrastructure"
	"gemini_bot/internal/interfaces"
	"gemini_bot/internal/interfaces/bot"
	httpapi "gemini_bot/internal/interfaces/http"
	"gemini_bot/internal/repository"
	"gemini_bot/internal/usecases"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := infrastructure.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Quota.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	ledgerStore, usageStore, closeStore, err := openStores(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Flood control: Redis when configured so replicas share one window per chat
	flood, floodStats, closeFlood, err := openFloodGuard(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFlood()

	// Usecases
	ledger := usecases.NewLedger(ledgerStore, cfg.Quota.DailyLimit,
		usecases.WithLocation(loc), usecases.WithLogger(log))
	usageLog := usecases.NewUsageLog(usageStore)

	gemini := infrastructure.NewGeminiClient(infrastructure.GeminiConfig{
		APIKey:       cfg.AI.APIKey,
		Model:        cfg.AI.Model,
		BaseURL:      cfg.AI.BaseURL,
		SystemPrompt: cfg.AI.SystemPrompt,
		Timeout:      cfg.AI.Timeout,
	})
	messageService := usecases.NewMessageService(ledger, usageLog, gemini, cfg.AI.Timeout, log)
	statsUsecase := usecases.NewStatsUsecase(ledger, usageLog)
	authUsecase := usecases.NewAuthUsecase(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret)

	// Telegram
	telegramClient, err := infrastructure.NewTelegramClient(cfg.Telegram.Token, log)
	if err != nil {
		return err
	}
	if err := telegramClient.SetCommands(bot.BotCommands()); err != nil {
		log.Warn().Err(err).Msg("set bot commands failed")
	}
	log.Info().Str("bot", telegramClient.Username()).Str("db", cfg.DB.Driver).
		Int("daily_limit", ledger.DefaultLimit()).Str("timezone", loc.String()).Msg("telegram bot connected")

	sessions := infrastructure.NewSessionManager(2 * time.Second)
	botHandler := bot.NewHandler(messageService, telegramClient, flood, sessions, cfg.Telegram.AdminChatID, log)
	poller := infrastructure.NewTelegramPoller(telegramClient.Bot, botHandler.HandleUpdate, log)

	// Admin HTTP API
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.SetupRoutes(r, authUsecase, statsUsecase, floodStats, telegramClient.Username(),
		httpapi.NewMiddleware(cfg.Admin.JWTSecret), log)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Prune(10 * time.Minute)
			}
		}
	}()

	poller.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func openStores(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (interfaces.LedgerStore, interfaces.UsageStore, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := infrastructure.NewPostgresClient(ctx, cfg.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return repository.NewUserRepository(pg.Pool), repository.NewUsageRepository(pg.Pool), pg.Close, nil
	default:
		db, err := infrastructure.NewSQLiteClient(cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath()).Msg("sqlite database ready")
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("close sqlite")
			}
		}
		return repository.NewSQLiteUserRepository(db.DB), repository.NewSQLiteUsageRepository(db.DB), closeFn, nil
	}
}

func openFloodGuard(ctx context.Context, cfg *config.Config, log zerolog.Logger) (interfaces.FloodGuard, httpapi.FloodStats, func(), error) {
	if cfg.Redis.Enabled() {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		limiter := infrastructure.NewRedisRateLimiter(rdb, cfg.Flood.Rate, cfg.Flood.Burst)
		return limiter, limiter, func() { _ = rdb.Close() }, nil
	}

	limiter := infrastructure.NewMessageRateLimiter(cfg.Flood.Rate, cfg.Flood.Burst)
	go limiter.RunCleanup(ctx, 5*time.Minute)
	return limiter, limiter, func() {}, nil
}
