package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/PabloGalante/vision-relay/internal/adapters/assistants"
	httpadapter "github.com/PabloGalante/vision-relay/internal/adapters/http"
	"github.com/PabloGalante/vision-relay/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/vision-relay/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/vision-relay/internal/adapters/storage/memory"
	"github.com/PabloGalante/vision-relay/internal/app/catalog"
	"github.com/PabloGalante/vision-relay/internal/app/vision"
	"github.com/PabloGalante/vision-relay/internal/config"
	"github.com/PabloGalante/vision-relay/internal/domain"
	"github.com/PabloGalante/vision-relay/internal/observability"
)

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("vision api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TraceExporter)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	analyzer, err := buildAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("analyzer ready", "backend", cfg.Backend)

	cat, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			log.Warn("closing query store", "error", err)
		}
	}()
	log.Info("query store ready", "storage", cfg.StorageBackend)

	svc := vision.NewService(analyzer, cat, store, string(cfg.Backend))
	handler := httpadapter.NewServer(svc, httpadapter.Options{MaxUploadBytes: cfg.MaxUploadBytes})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("vision api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func buildAnalyzer(ctx context.Context, cfg *config.Config) (domain.ImageAnalyzer, error) {
	switch cfg.Backend {
	case config.BackendMock:
		return llm.NewMockAnalyzer(), nil

	case config.BackendVertex:
		return llm.NewVertexAnalyzer(ctx, llm.VertexConfig{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})

	default:
		client, err := assistants.New(assistants.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Beta:    cfg.BetaHeader,
			Timeout: cfg.HTTPTimeout,
		})
		if err != nil {
			return nil, err
		}
		return vision.NewOrchestrator(client, vision.Options{
			AssistantID: cfg.AssistantID,
			Poll: vision.PollPolicy{
				Interval:    cfg.PollInterval,
				MaxAttempts: cfg.PollMaxAttempts,
				Timeout:     cfg.PollTimeout,
			},
			DeleteThreads: cfg.DeleteThreads,
		}), nil
	}
}

func buildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	fallback := domain.Assistant{
		Slug:     catalog.DefaultSlug,
		RemoteID: cfg.AssistantID,
		Name:     "Asistente",
	}
	if cfg.AssistantsFile == "" {
		return catalog.FromAssistant(fallback), nil
	}
	return catalog.LoadFile(cfg.AssistantsFile, fallback)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func buildStore(ctx context.Context, cfg *config.Config) (domain.QueryStore, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.StorageFirestore:
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil
	default:
		return memstore.NewQueryStore(0), nopCloser{}, nil
	}
}
