package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"metamorphosis/internal/http/handlers"
	httpapi "metamorphosis/internal/http/httpapi"
	"metamorphosis/internal/infra"
	"metamorphosis/internal/infra/geoip"
	"metamorphosis/internal/middleware"
	"metamorphosis/internal/providers/image"
	"metamorphosis/internal/providers/vision"
	"metamorphosis/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.ApplySchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	store, err := storage.NewStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init asset store")
	}

	var countryLookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip database unavailable, country resolution disabled")
		} else {
			defer func() {
				_ = resolver.Close()
			}()
			countryLookup = resolver.CountryCode
		}
	}

	analyzers := map[string]vision.Analyzer{}
	if cfg.GeminiAPIKey != "" {
		analyzer, err := vision.NewGeminiAnalyzer(vision.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init gemini analyzer")
		}
		analyzers["gemini"] = analyzer
	}
	if cfg.AnthropicAPIKey != "" {
		analyzer, err := vision.NewClaudeAnalyzer(vision.ClaudeOptions{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			BaseURL: cfg.AnthropicBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init claude analyzer")
		}
		analyzers["claude"] = analyzer
	}

	generators := map[string]image.Generator{}
	if cfg.HFToken != "" {
		generator, err := image.NewHFGenerator(image.HFOptions{
			Token:   cfg.HFToken,
			Model:   cfg.HFModel,
			BaseURL: cfg.HFBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init hf generator")
		}
		generators["hf"] = generator
	}
	if cfg.GeminiAPIKey != "" {
		generator, err := image.NewGeminiGenerator(image.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init gemini generator")
		}
		generators["gemini"] = generator
	}

	if _, ok := analyzers[cfg.VisionProvider]; !ok {
		logger.Warn().Str("provider", cfg.VisionProvider).Msg("configured vision provider has no API key, uploads will fail")
	}
	if _, ok := generators[cfg.ImageProvider]; !ok {
		logger.Warn().Str("provider", cfg.ImageProvider).Msg("configured image provider has no API key, renders will fail")
	}

	app := &handlers.App{
		Config:     cfg,
		Logger:     logger,
		SQL:        infra.NewSQLRunner(dbpool, logger),
		Store:      store,
		Analyzers:  analyzers,
		Generators: generators,
	}

	router := httpapi.NewRouter(app, countryLookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
