// Package main provides the entry point for the evidence service HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Diegogigi/medconnect-evidence/internal/config"
	"github.com/Diegogigi/medconnect-evidence/internal/observability"
	"github.com/Diegogigi/medconnect-evidence/internal/providers"
	"github.com/Diegogigi/medconnect-evidence/internal/providers/europepmc"
	"github.com/Diegogigi/medconnect-evidence/internal/providers/pubmed"
	"github.com/Diegogigi/medconnect-evidence/internal/query"
	"github.com/Diegogigi/medconnect-evidence/internal/search"
	httpserver "github.com/Diegogigi/medconnect-evidence/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("medconnect-evidence server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// Term tables and lexical translator.
	terms := search.DefaultTerms()
	translator := query.NewTranslator(terms.Translations)

	// Bibliographic providers, registered primary first: registration
	// order is the merge and fallback order.
	registry := providers.NewRegistry()
	registry.Register(pubmed.New(pubmed.Config{
		BaseURL:     cfg.Providers.PubMed.BaseURL,
		APIKey:      cfg.Providers.PubMed.APIKey,
		Tool:        cfg.Providers.PubMed.Tool,
		Email:       cfg.Providers.PubMed.Email,
		Timeout:     cfg.Providers.PubMed.Timeout,
		MinInterval: cfg.Providers.PubMed.MinInterval,
		PageSize:    cfg.Providers.PubMed.PageSize,
		Enabled:     cfg.Providers.PubMed.Enabled,
	}))
	registry.Register(europepmc.New(europepmc.Config{
		BaseURL:     cfg.Providers.EuropePMC.BaseURL,
		Email:       cfg.Providers.EuropePMC.Email,
		Timeout:     cfg.Providers.EuropePMC.Timeout,
		MinInterval: cfg.Providers.EuropePMC.MinInterval,
		PageSize:    cfg.Providers.EuropePMC.PageSize,
		Enabled:     cfg.Providers.EuropePMC.Enabled,
	}))

	weights := search.DefaultScoreWeights()
	weights.MinScore = cfg.Search.MinScore
	weights.RelaxedMinScore = cfg.Search.RelaxedMinScore
	scorer := search.NewScorer(weights, terms)

	cache := search.NewCache(cfg.Search.CacheTTL, cfg.Search.CacheCapacity)

	engine := search.NewEngine(registry, cache, scorer, search.EngineConfig{
		TopK:             cfg.Search.TopK,
		QueryTimeout:     cfg.Search.QueryTimeout,
		FailureThreshold: cfg.Search.FailureThreshold,
	}, logger, metrics)

	composer := search.NewComposer()

	httpCfg := httpserver.Config{
		Address:         cfg.Server.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}
	httpSrv := httpserver.NewServer(httpCfg, engine, composer, translator, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Bool("pubmed_enabled", cfg.Providers.PubMed.Enabled).
		Bool("europepmc_enabled", cfg.Providers.EuropePMC.Enabled).
		Msg("medconnect-evidence is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("medconnect-evidence shutdown complete")
	return nil
}
