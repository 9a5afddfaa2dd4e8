// Command server runs the trip-sharing backend: a Gin HTTP API backed by a
// relational itinerary store, a Mongo document store for social data and AI
// suggestion state, GCS avatar storage, and a generative travel-suggestion
// pipeline.
//
// Startup order:
//  1. .env + environment → config
//  2. zerolog global logger
//  3. OpenTelemetry tracing (optional)
//  4. relational DB (migrate), document store (indexes), avatar bucket
//  5. AI generator + background suggestion workers
//  6. HTTP server with graceful shutdown
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roamline/go-trip-backend/internal/ai"
	"github.com/roamline/go-trip-backend/internal/config"
	"github.com/roamline/go-trip-backend/internal/docstore"
	httpapi "github.com/roamline/go-trip-backend/internal/http"
	"github.com/roamline/go-trip-backend/internal/observability"
	"github.com/roamline/go-trip-backend/internal/repo"
	"github.com/roamline/go-trip-backend/internal/services"
	"github.com/roamline/go-trip-backend/internal/storage"
	"github.com/roamline/go-trip-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const suggestionWorkers = 2

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found; using process environment")
	}

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open relational database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate relational database")
	}

	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("connect document store")
	}
	defer func() {
		if err := docs.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("document store close")
		}
	}()
	if err := docs.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("document store indexes")
	}

	avatars, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("open avatar bucket")
	}
	defer avatars.Close()

	gen := &ai.Generator{
		Completer:      ai.NewOpenAICompleter(cfg.AI),
		Model:          cfg.AI.Model,
		TokenCap:       cfg.AI.TokenCap,
		RetryTokenCap:  cfg.AI.RetryTokenCap,
		NetworkRetries: cfg.AI.NetworkRetries,
		RetryBackoff:   cfg.AI.RetryBackoff,
		CallTimeout:    cfg.AI.CallTimeout,
	}
	suggestions := &services.SuggestionService{
		Runner:     gen,
		Store:      docs,
		SoftBudget: cfg.AI.SoftBudget,
	}
	suggestions.Start(suggestionWorkers)
	defer suggestions.Close()

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:          db,
		Docs:        docs,
		Avatars:     avatars,
		Suggestions: suggestions,
	}, cfg)

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
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
