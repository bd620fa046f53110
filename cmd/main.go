package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"project_geminibot/internal/config"
	"project_geminibot/internal/entities"
	"project_geminibot/internal/infrastructure"
	"project_geminibot/internal/interfaces"
	apihttp "project_geminibot/internal/interfaces/http"
	"project_geminibot/internal/repository"
	"project_geminibot/internal/usecases"
)

// usageStore records interactions and serves the daily stats.
type usageStore interface {
	interfaces.Recorder
	apihttp.StatsSource
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger, err := infrastructure.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("init logger", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Usage stats and custom responses: Postgres when configured, in process otherwise.
	var usage usageStore
	var responses apihttp.ResponseStore
	if cfg.DatabaseURL != "" {
		pgClient, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect to database", "err", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		usage = repository.NewUsageRepository(pgClient.Pool)

		repo := repository.NewResponseRepository(pgClient.Pool)
		seeded, err := repo.SeedIfEmpty(ctx, cfg.FAQ)
		if err != nil {
			logger.Error("seed custom responses", "err", err)
			os.Exit(1)
		}
		if seeded {
			logger.Info("seeded custom responses", "count", len(cfg.FAQ))
		}
		responses = repo
	} else {
		logger.Info("DATABASE_URL not set, keeping usage stats and custom responses in memory")
		usage = repository.NewMemoryUsage()
		responses = repository.NewMemoryResponses(cfg.FAQ)
	}
	faq, err := responses.Table(ctx)
	if err != nil {
		logger.Error("load custom responses", "err", err)
		os.Exit(1)
	}

	// External services
	apiOpts := []infrastructure.Option{infrastructure.WithTimeout(cfg.HTTPTimeout)}
	gemini := infrastructure.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel,
		infrastructure.WithGeminiHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	weather := infrastructure.NewWeatherClient(cfg.WeatherAPIKey,
		append(apiOpts, infrastructure.WithBaseURL(cfg.WeatherURL))...)
	news := infrastructure.NewNewsClient(cfg.NewsAPIKey, cfg.NewsCountry,
		append(apiOpts, infrastructure.WithBaseURL(cfg.NewsURL))...)
	translator := infrastructure.NewTranslateClient(
		append(apiOpts, infrastructure.WithBaseURL(cfg.TranslateURL))...)
	vision := infrastructure.NewVisionClient(cfg.ClarifaiAPIKey,
		append(apiOpts, infrastructure.WithBaseURL(cfg.ClarifaiURL))...)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, model replies will fail")
	}

	scratch, err := infrastructure.NewScratchDir(cfg.ScratchDir, cfg.ScratchTTL, logger)
	if err != nil {
		logger.Error("prepare scratch directory", "err", err)
		os.Exit(1)
	}
	limiter := infrastructure.NewChatRateLimiter(cfg.ChatRate, cfg.ChatBurst)
	sessions := infrastructure.NewSessionManager()

	svc := usecases.NewMessageService(usecases.MessageServiceDeps{
		FAQ:       usecases.NewFAQTable(faq),
		Denylist:  usecases.NewDenylist(cfg.Denylist),
		Gateway:   usecases.NewGateway(gemini, weather, news, translator, logger),
		Extractor: usecases.NewExtractor(vision, logger),
		Limiter:   limiter,
		Sessions:  sessions,
		Scratch:   scratch,
		Recorder:  usage,
		Logger:    logger,
	})

	pool := infrastructure.NewWorkerPool(cfg.Workers, logger)

	go scratch.RunJanitor(ctx, cfg.ScratchTTL/4, func() {
		if n := limiter.Sweep(); n > 0 {
			logger.Debug("rate limiter sweep", "removed", n)
		}
	})

	dispatch := func(ch interfaces.Channel) infrastructure.UpdateHandler {
		return func(ctx context.Context, msg entities.Message) {
			if err := svc.Handle(ctx, msg, ch); err != nil {
				logger.Warn("handle message", "platform", ch.Name(), "chat", msg.ChatID, "err", err)
			}
		}
	}

	// Telegram
	var tgStatus apihttp.TelegramStatus
	pollDone := make(chan struct{})
	if cfg.TelegramToken != "" {
		tg, err := infrastructure.NewTelegramClient(cfg.TelegramToken, logger)
		if err != nil {
			logger.Error("connect to telegram", "err", err)
			os.Exit(1)
		}
		poller := infrastructure.NewTelegramPoller(tg, pool, logger)
		tgStatus = poller
		go func() {
			defer close(pollDone)
			poller.Run(ctx, dispatch(tg))
		}()
	} else {
		logger.Warn("Telegram disabled (TELEGRAM_BOT_TOKEN missing). Running Web/WhatsApp only.")
		close(pollDone)
	}

	// WhatsApp
	var waSession apihttp.WhatsAppSession
	var wa *infrastructure.WhatsAppClient
	if cfg.WhatsAppEnabled {
		wa, err = infrastructure.NewWhatsAppClient(ctx, cfg.WhatsAppStore, logger)
		if err != nil {
			logger.Error("init whatsapp", "err", err)
			os.Exit(1)
		}
		wa.Listen(ctx, pool, dispatch(wa))
		if err := wa.Connect(ctx); err != nil {
			logger.Error("connect to whatsapp", "err", err)
			os.Exit(1)
		}
		waSession = wa
	}

	// HTTP API
	auth, err := usecases.NewAuthUsecase(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret)
	if err != nil {
		logger.Error("init auth", "err", err)
		os.Exit(1)
	}
	if !auth.Enabled() {
		logger.Warn("ADMIN_PASSWORD not set, HTTP login disabled")
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	handler := apihttp.NewHandler(apihttp.HandlerDeps{
		Messages: svc,
		Auth:     auth,
		Stats:    usage,
		Telegram: tgStatus,
		WhatsApp: waSession,
		Store:    responses,
		FAQ:      svc,
		Limiter:  limiter,
		Sessions: sessions,
		Logger:   logger,
	})
	apihttp.SetupRoutes(r, handler, apihttp.NewMiddleware(apihttp.MiddlewareConfig{
		JWTSecret: cfg.JWTSecret,
		Origins:   cfg.CORSOrigins,
		Rate:      rate.Limit(cfg.APIRate),
		Burst:     cfg.APIBurst,
	}))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-pollDone
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", "err", err)
	}
	pool.Wait()
	if wa != nil {
		wa.Disconnect()
	}
	logger.Info("stopped")
}
