package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/auth"
	"github.com/unisphere/exam-gateway/internal/config"
	"github.com/unisphere/exam-gateway/internal/database"
	"github.com/unisphere/exam-gateway/internal/handler"
	"github.com/unisphere/exam-gateway/internal/logger"
	"github.com/unisphere/exam-gateway/internal/router"
	"github.com/unisphere/exam-gateway/internal/session"
	"github.com/unisphere/exam-gateway/internal/upstream"
	"github.com/unisphere/exam-gateway/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("upstream", cfg.UpstreamBaseURL).
		Msg("Starting Exam Gateway")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (exam snapshot cache; optional) ──────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, exam snapshot caching disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ─── Upstream Client + Cache ───────────────────────────────────────
	client := upstream.NewClient(cfg, log)
	examProvider := upstream.NewCachedExamProvider(client, rdb, cfg, log)

	// ─── Session Registry ──────────────────────────────────────────────
	registry := session.NewRegistry(cfg, examProvider, client, log)

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	go registry.Janitor(janitorCtx)

	// ─── Attempt Tokens ────────────────────────────────────────────────
	issuer := auth.NewAttemptTokenIssuer(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(client),
		Portal:  handler.NewPortalHandler(client),
		Attempt: handler.NewAttemptHandler(registry, issuer),
		Admin:   handler.NewAdminHandler(client, examProvider),
		WS:      handler.NewWSHandler(log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, issuer, registry, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the janitor and cancel every live attempt clock. In-progress
	// attempts are lost; the registry is memory-only.
	janitorCancel()
	registry.Shutdown()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
