package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfandino/area-assistant/internal/config"
	"github.com/mfandino/area-assistant/internal/core/ports"
	"github.com/mfandino/area-assistant/internal/core/usecase"
	"github.com/mfandino/area-assistant/internal/infrastructure/chunking"
	"github.com/mfandino/area-assistant/internal/infrastructure/embedding/ollama"
	"github.com/mfandino/area-assistant/internal/infrastructure/embedding/openaiembed"
	"github.com/mfandino/area-assistant/internal/infrastructure/extractor"
	llmollama "github.com/mfandino/area-assistant/internal/infrastructure/llm/ollama"
	"github.com/mfandino/area-assistant/internal/infrastructure/ocr"
	"github.com/mfandino/area-assistant/internal/infrastructure/repository/postgres"
	"github.com/mfandino/area-assistant/internal/infrastructure/resilience"
	"github.com/mfandino/area-assistant/internal/infrastructure/vector/qdrant"
	"github.com/mfandino/area-assistant/internal/observability/logging"
	"github.com/mfandino/area-assistant/internal/observability/metrics"
)

const (
	embedderInitTimeout = 60 * time.Second
	vectorInitTimeout   = 30 * time.Second
)

// App wires the service. New runs the critical phase: anything it returns
// an error for prevents startup. StartOptional brings up the capabilities
// the service can run degraded without.
type App struct {
	Config config.Config
	Areas  *config.AreaRegistry

	Registry    *Registry
	Transcripts ports.TranscriptStore
	Ingestor    ports.DocumentIngestor
	Chat        ports.ChatService
	Metrics     *metrics.HTTPServerMetrics
	Logger      *slog.Logger

	embedder ports.Embedder
	vector   *qdrant.Client

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	transcripts := postgres.NewTranscriptRepository(db)
	if err := transcripts.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	areas, err := config.LoadAreas(cfg.AreaConfigPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load areas: %w", err)
	}
	logger.Info("area registry loaded", "areas", areas.Names())

	var ocrService ports.OCRService
	if cfg.OCRURL != "" {
		ocrService = ocr.NewClient(cfg.OCRURL, time.Duration(cfg.OCRTimeoutSeconds)*time.Second)
	}

	embedder := buildEmbedder(cfg, logger)
	vector := qdrant.New(qdrant.Options{
		BaseURL:                 cfg.QdrantURL,
		DocumentsCollection:     cfg.QdrantDocumentsCollection,
		ConversationsCollection: cfg.QdrantConversationsCollection,
		VectorSize:              cfg.VectorSize,
		ScoreThreshold:          cfg.ScoreThreshold,
	}, embedder, logging.Component(logger, "qdrant"))

	generator := llmollama.New(cfg.OllamaURL, resilience.Config{
		Threshold:   uint32(cfg.BreakerThreshold),
		CallTimeout: time.Duration(cfg.BreakerCallTimeoutSeconds) * time.Second,
		ResetTime:   time.Duration(cfg.BreakerResetSeconds) * time.Second,
	}, logging.Component(logger, "ollama"))

	registry := NewRegistry()
	httpMetrics := metrics.NewHTTPServerMetrics("api")

	ingestor := usecase.NewIngestService(
		extractor.New(ocrService, logger),
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		registry,
		usecase.IngestOptions{
			MaxUploadBytes: cfg.MaxUploadBytes,
			Workers:        cfg.UploadWorkers,
		},
		httpMetrics,
		logger,
	)
	chat := usecase.NewChatService(generator, transcripts, registry, logger)

	return &App{
		Config:      cfg,
		Areas:       areas,
		Registry:    registry,
		Transcripts: transcripts,
		Ingestor:    ingestor,
		Chat:        chat,
		Metrics:     httpMetrics,
		Logger:      logger,
		embedder:    embedder,
		vector:      vector,
		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func buildEmbedder(cfg config.Config, logger *slog.Logger) ports.Embedder {
	logger = logging.Component(logger, "embedder")
	if cfg.EmbeddingsProvider == "openai" {
		return openaiembed.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel,
			cfg.VectorSize, cfg.EmbedMaxChars, logger)
	}
	return ollama.NewEmbedder(cfg.OllamaURL, cfg.OllamaEmbedModel,
		cfg.VectorSize, cfg.EmbedMaxChars, logger)
}

// StartOptional initializes the embedder and the vector index in the
// background. The API serves traffic while this runs; uploads and
// retrieval stay disabled until their capability flips to ready.
func (a *App) StartOptional(ctx context.Context) {
	go func() {
		initCtx, cancel := context.WithTimeout(ctx, embedderInitTimeout)
		defer cancel()

		if err := a.embedder.Initialize(initCtx); err != nil {
			a.Registry.MarkFailed("embedder", err)
			a.Logger.Error("embedder initialization failed, uploads disabled", "error", err)
			return
		}
		a.Registry.SetEmbedder(a.embedder)

		vecCtx, vecCancel := context.WithTimeout(ctx, vectorInitTimeout)
		defer vecCancel()

		if err := a.vector.EnsureCollections(vecCtx); err != nil {
			a.Registry.MarkFailed("vector_index", err)
			a.Logger.Error("vector index initialization failed, retrieval disabled", "error", err)
			return
		}
		a.Registry.SetVectorIndex(a.vector)
		a.Logger.Info("optional services ready")
	}()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
