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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"corpchat-backend/internal/catalog"
	"corpchat-backend/internal/config"
	"corpchat-backend/internal/database"
	"corpchat-backend/internal/handlers"
	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/metrics"
	"corpchat-backend/internal/repository"
	"corpchat-backend/internal/router"
	"corpchat-backend/internal/services"
	"corpchat-backend/internal/web"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logx.Configure(cfg.LogLevel, cfg.IsDevelopment())
	log := logx.Log

	log.Info().Msg("Starting CorpChat Backend...")
	log.Info().Interface("config", cfg.Redacted()).Msg("✓ Environment variables loaded")

	// ──── Step 2: Load Model Catalog ────
	modelCatalog, err := catalog.Load(cfg.ModelsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Model catalog failed to load")
	}
	log.Info().Int("providers", len(modelCatalog.Providers)).Msg("✓ Model catalog loaded")

	// ──── Step 3: Initialize Redis (optional) ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ Redis connection failed")
		}
		defer redisClient.Close()
		log.Info().Msg("✓ Redis connected, usage tracking enabled")
	} else {
		log.Info().Msg("REDIS_URL not set, usage tracking disabled")
	}

	// ──── Step 4: Metrics ────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	// ──── Step 5: Initialize Services ────
	gatewayService := services.NewGatewayService(services.GatewayConfig{
		BaseURL:            cfg.GatewayBaseURL,
		AccountID:          cfg.AccountID,
		GatewayName:        cfg.GatewayName,
		GatewayToken:       cfg.GatewayToken,
		OpenAIToken:        cfg.OpenAIToken,
		WorkersAIToken:     cfg.WorkersAIToken,
		WorkersAIMaxTokens: cfg.WorkersAIMaxTokens,
		Timeout:            cfg.UpstreamTimeout,
	}, nil)
	log.Info().Str("gateway", cfg.GatewayBaseURL).Msg("✓ AI Gateway client initialized")

	// ──── Initialize Handlers ────
	var chatHandler *handlers.ChatHandler
	var usageHandler *handlers.UsageHandler
	if redisClient != nil {
		usageRepo := repository.NewUsageRepo(redisClient)
		chatHandler = handlers.NewChatHandler(gatewayService, usageRepo, cfg.MaxBodyBytes)
		usageHandler = handlers.NewUsageHandler(usageRepo)
	} else {
		chatHandler = handlers.NewChatHandler(gatewayService, nil, cfg.MaxBodyBytes)
		usageHandler = handlers.NewUsageHandler(nil)
	}
	pageHandler := handlers.NewPageHandler(web.IndexHTML)
	catalogHandler := handlers.NewCatalogHandler(modelCatalog)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		chatHandler,
		pageHandler,
		catalogHandler,
		usageHandler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		cfg.AllowedOrigins,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	log.Info().Msgf("✓ CorpChat Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/chat", cfg.Port)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
}
