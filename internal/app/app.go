// Package app assembles the normalizer from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mrericsingh-eng/normalize/internal/config"
	"github.com/mrericsingh-eng/normalize/internal/integrations/emergency"
	"github.com/mrericsingh-eng/normalize/internal/integrations/geocoder"
	"github.com/mrericsingh-eng/normalize/internal/llm"
	"github.com/mrericsingh-eng/normalize/internal/processing"
	"github.com/mrericsingh-eng/normalize/internal/server"
	"github.com/mrericsingh-eng/normalize/internal/storage"
)

// App owns every long-lived component. Close releases them in reverse
// order of construction.
type App struct {
	Config    *config.Config
	Store     storage.Store
	Processor *processing.Processor
	Stats     *server.Stats
	Server    *server.Server

	logger *zap.Logger
}

// New builds the stack described by cfg and starts the workers.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.APIKey(),
		BaseURL:  providerBaseURL(cfg),
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Lookups.Timeout}
	geo := geocoder.New(geocoder.Options{
		BaseURL:    cfg.Lookups.GeocoderBaseURL,
		UserAgent:  cfg.Lookups.UserAgent,
		MaxRetries: cfg.Lookups.MaxRetries,
		RPS:        cfg.Lookups.GeocoderRPS,
		Cache:      store,
		Logger:     logger,
		HTTPClient: httpClient,
	})
	sos := emergency.New(emergency.Options{
		BaseURL:    cfg.Lookups.EmergencyAPIBase,
		UserAgent:  cfg.Lookups.UserAgent,
		MaxRetries: cfg.Lookups.MaxRetries,
		Cache:      store,
		Logger:     logger,
		HTTPClient: httpClient,
	})

	pipeline := processing.NewPipeline(processing.Deps{
		LLM:               model,
		Geocoder:          geo,
		Emergency:         sos,
		Logger:            logger.Named("pipeline"),
		LookupConcurrency: cfg.Workers.Count,
	})

	stats := server.NewStats()
	proc := processing.NewProcessor(pipeline, cfg.Workers.QueueSize, stats.Record)
	proc.StartWorkers(cfg.Workers.Count)

	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = llm.DefaultModel(cfg.LLM.Provider)
	}
	logger.Info("normalizer ready",
		zap.String("provider", model.Name()),
		zap.String("model", modelName),
		zap.Int("workers", cfg.Workers.Count),
		zap.Bool("persistent_cache", cfg.Cache.DBPath != ""))

	return &App{
		Config:    cfg,
		Store:     store,
		Processor: proc,
		Stats:     stats,
		Server:    server.NewServer(proc, stats, logger.Named("http")),
		logger:    logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Cache.DBPath == "" {
		return storage.NewMemory(cfg.Cache.TTL), nil
	}
	store, err := storage.NewSQLite(cfg.Cache.DBPath, cfg.Cache.TTL, logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", cfg.Cache.DBPath, err)
	}
	if n, err := store.Prune(ctx); err != nil {
		logger.Warn("cache prune failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("pruned expired cache entries", zap.Int64("count", n))
	}
	return store, nil
}

func providerBaseURL(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case llm.ProviderOpenAI:
		return cfg.LLM.OpenAIBaseURL
	case llm.ProviderOllama:
		return cfg.LLM.OllamaURL
	}
	return ""
}

// Serve listens on the configured port until ctx is done, then drains
// in-flight requests within shutdownTimeout.
func (a *App) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return a.ServeListener(ctx, ln, shutdownTimeout)
}

// ServeListener is Serve on an existing listener.
func (a *App) ServeListener(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           a.Server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("server shutdown", zap.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the workers and closes the cache.
func (a *App) Close() error {
	a.Processor.Close()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return nil
}
