// Command server runs the ChatGuusPT backend: the widget API, the admin
// analytics endpoints and the background jobs.
//
// @title       ChatGuusPT API
// @version     2.0.0
// @description Multi-tenant chatbot backend: chat, satisfaction, AI analytics, tenants and the embeddable widget.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	_ "github.com/chatguus/chatguus-backend/docs"
	"github.com/chatguus/chatguus-backend/internal/action"
	"github.com/chatguus/chatguus-backend/internal/cache"
	"github.com/chatguus/chatguus-backend/internal/config"
	"github.com/chatguus/chatguus-backend/internal/email"
	httpapi "github.com/chatguus/chatguus-backend/internal/http"
	"github.com/chatguus/chatguus-backend/internal/jobs"
	"github.com/chatguus/chatguus-backend/internal/llm"
	"github.com/chatguus/chatguus-backend/internal/notify"
	"github.com/chatguus/chatguus-backend/internal/observability"
	"github.com/chatguus/chatguus-backend/internal/personality"
	"github.com/chatguus/chatguus-backend/internal/repo"
	"github.com/chatguus/chatguus-backend/internal/services"
	"github.com/chatguus/chatguus-backend/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFile, envErr := sysutil.LoadDotEnv()

	cfg := config.MustLoad()
	logger := sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, httpapi.ServiceName, cfg.Version)

	if envErr != nil {
		log.Warn().Err(envErr).Msg("dotenv not loaded")
	} else if envFile != "" {
		log.Info().Str("file", envFile).Msg("dotenv loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, cfg.Version, cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
		log.Fatal().Err(err).Msg("instrument database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, closeCache := newCache(ctx, cfg)
	events := newPublisher(ctx, cfg)

	tenants := services.NewTenantService(db, store, cfg.PublicBaseURL, cfg.APIBasePath)
	if err := tenants.SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed default tenants")
	}

	kb, err := personality.LoadKnowledge()
	if err != nil {
		log.Fatal().Err(err).Msg("load knowledge base")
	}
	var completer llm.Completer
	if cfg.OpenAI.Enabled() {
		completer = llm.NewClient(cfg.OpenAI)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, replies use the knowledge base only")
	}
	responder := personality.NewGenerator(completer, kb, store)

	actions := action.NewRouter(email.NewRouter(cfg.Email))
	aiAnalytics := services.NewAIAnalyticsService(db, store, events)
	sheet := newSpreadsheet(ctx, cfg)

	svc := httpapi.Services{
		Chat:         services.NewChatService(db, tenants, responder, actions, aiAnalytics, sheet, events),
		Satisfaction: services.NewSatisfactionService(db, tenants, newAlerter(cfg), sheet, events),
		AIAnalytics:  aiAnalytics,
		Tenants:      tenants,
		Usage:        services.NewUsageService(db, cfg.AnalyticsSalt),
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, svc, cfg)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.New(db, aiAnalytics, cfg.Jobs, logger)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("start jobs")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("api_base", cfg.APIBasePath).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := events.Close(); err != nil {
		log.Warn().Err(err).Msg("close event publisher")
	}
	closeCache()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}

// newCache uses Redis when REDIS_URL is set and reachable and the in-process
// cache otherwise.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, func()) {
	if cfg.Integrations.RedisConfigured {
		rc, err := cache.NewRedis(ctx, cfg.Integrations.RedisURL, cfg.CacheTTL)
		if err == nil {
			log.Info().Msg("using redis cache")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
	}
	return cache.NewMemory(cfg.CacheTTL), func() {}
}

func newPublisher(ctx context.Context, cfg config.Config) notify.Publisher {
	if cfg.Integrations.AMQPConfigured {
		p, err := notify.NewAMQP(ctx, cfg.Integrations.AMQPURL, cfg.Integrations.AMQPExchange)
		if err == nil {
			log.Info().Str("exchange", cfg.Integrations.AMQPExchange).Msg("publishing events to amqp")
			return p
		}
		log.Warn().Err(err).Msg("amqp unavailable, events will be logged only")
	}
	return notify.LogPublisher{}
}

func newSpreadsheet(ctx context.Context, cfg config.Config) *notify.Spreadsheet {
	if cfg.Integrations.SheetsConfigured {
		gs, err := notify.NewGoogleSheets(ctx, cfg.Integrations.SheetsID, cfg.Integrations.ServiceAccountKey)
		if err == nil {
			return notify.NewSpreadsheet(gs)
		}
		log.Warn().Err(err).Msg("google sheets unavailable, rows will be logged only")
	}
	return notify.NewSpreadsheet(notify.LogAppender{})
}

func newAlerter(cfg config.Config) notify.Alerter {
	if !cfg.Integrations.SlackConfigured {
		return nil
	}
	return notify.NewSlack(cfg.Integrations.SlackWebhookURL)
}
