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

	"go.uber.org/zap"

	"wastetofeast/internal/api"
	"wastetofeast/internal/config"
	"wastetofeast/internal/illustrate"
	"wastetofeast/internal/logger"
	"wastetofeast/internal/platform/gemini"
	"wastetofeast/internal/platform/imagegen"
	"wastetofeast/internal/platform/localllm"
	"wastetofeast/internal/recipe"
	"wastetofeast/internal/stream"
)

// model reads images and writes text.
type model interface {
	api.IngredientDetector
	stream.Generator
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm, closeModel, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeModel()

	store, closeStore, err := newStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var cache illustrate.Cache
	if cfg.Redis.Addr != "" {
		rc, err := illustrate.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Warn("Illustration cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	images := imagegen.NewClient(cfg.Image.APIURL, cfg.Image.APIKey, cfg.Image.Model, cfg.Image.Size)
	streamer := stream.New(llm, cfg.Stream.ChunkDelay, log, stream.WithHistory(store))
	illustrator := illustrate.New(llm, images, cache, log)

	handler := api.NewHandler(llm, streamer, illustrator, store, log)
	handler.MaxUploadBytes = cfg.Upload.MaxSizeBytes
	handler.MaxImageWidth = cfg.Upload.MaxWidth

	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Debug:          cfg.Server.Debug,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("gemini_api_key", config.MaskSecret(cfg.Gemini.APIKey)),
			zap.String("image_api_key", config.MaskSecret(cfg.Image.APIKey)),
			zap.Strings("allowed_origins", cfg.Server.AllowedOrigins),
			zap.Duration("chunk_delay", cfg.Stream.ChunkDelay),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func newModel(ctx context.Context, cfg *config.Config) (model, func(), error) {
	switch cfg.LLM.Provider {
	case config.ProviderLocal:
		return localllm.NewClient(cfg.LocalLLM.BaseURL, cfg.LocalLLM.Model), func() {}, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.VisionModel, cfg.Gemini.TextModel)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return client, func() { client.Close() }, nil
	}
}

func newStore(cfg *config.Config, log *zap.Logger) (recipe.Store, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("No database configured, keeping analyses and recipe history in memory")
		return recipe.NewMemoryStore(), func() {}, nil
	}
	store, err := recipe.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating postgres store: %w", err)
	}
	return store, func() { store.Close() }, nil
}
