package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/api"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/config"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/metrics"
	"github.com/triage-ai/palisade/services/tool_catalog/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Int("port", 0, "HTTP listen port.")
	cmd.Flags().Duration("suggest-cache-ttl", 0, "Cache successful suggestions for this long (0 disables).")
	cmd.Flags().Int("suggest-cache-max", 0, "Maximum number of cached suggestion queries.")
	cmd.Flags().Float64("suggest-rate", 0, "Suggestions per second accepted by the API (0 disables limiting).")
	cmd.Flags().Int("suggest-burst", 0, "Suggestion burst size.")
	cmd.Flags().String("clickhouse-dsn", "", "ClickHouse DSN for catalog events (empty logs events).")

	bindFlag(v, cmd, config.KeyHTTPPort, "port")
	bindFlag(v, cmd, config.KeySuggestCacheTTL, "suggest-cache-ttl")
	bindFlag(v, cmd, config.KeySuggestCacheMax, "suggest-cache-max")
	bindFlag(v, cmd, config.KeySuggestRate, "suggest-rate")
	bindFlag(v, cmd, config.KeySuggestBurst, "suggest-burst")
	bindFlag(v, cmd, config.KeyClickHouseDSN, "clickhouse-dsn")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting tool catalog server",
		zap.String("addr", cfg.ListenAddr()),
		zap.String("backend_url", cfg.BackendURL),
		zap.Duration("suggest_cache_ttl", cfg.SuggestCacheTTL),
		zap.Float64("suggest_rate", cfg.SuggestRate),
	)

	writer := newEventWriter(cfg.ClickHouseDSN, logger)
	defer writer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPrometheusMetrics(registry)

	cat := catalog.New(catalog.Config{
		Source: catalog.NewHTTPSource(catalog.HTTPSourceConfig{
			BaseURL: cfg.BackendURL,
			Timeout: cfg.HTTPTimeout,
			Logger:  logger,
		}),
		Logger:          logger,
		Events:          writer,
		Observer:        m,
		SuggestCacheTTL: cfg.SuggestCacheTTL,
		SuggestCacheMax: cfg.SuggestCacheMax,
	})
	cat.Initialize(ctx)

	var limiter *rate.Limiter
	if cfg.SuggestRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SuggestRate), cfg.SuggestBurst)
	}

	deps := &api.Dependencies{
		Catalog:        cat,
		Logger:         logger,
		Metrics:        m,
		Gatherer:       registry,
		SuggestLimiter: limiter,
	}
	if cfg.ClickHouseDSN != "" {
		reader, err := storage.NewReader(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader unavailable, event endpoints disabled", zap.Error(err))
		} else {
			defer func() { _ = reader.Close() }()
			deps.Events = reader
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-errCh:
		return fmt.Errorf("runServe: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	return nil
}

// newEventWriter returns a ClickHouse writer, or a LogWriter when no DSN is
// set or the connection fails.
func newEventWriter(dsn string, logger *zap.Logger) storage.EventWriter {
	if dsn == "" {
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
		return storage.NewLogWriter(logger)
	}
	chWriter, err := storage.NewClickHouseWriter(dsn, logger)
	if err != nil {
		logger.Warn("clickhouse connection failed, falling back to log writer",
			zap.Error(err),
		)
		return storage.NewLogWriter(logger)
	}
	logger.Info("clickhouse writer connected")
	return chWriter
}
