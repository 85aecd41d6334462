package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

// Content shorter than this after extraction carries no retrieval value
// and is skipped without error.
const minIndexableChars = 10

type IngestMetrics interface {
	RecordDocument(service, area string, chunks int, duration time.Duration, err error)
}

type IngestService struct {
	extractor ports.Extractor
	chunker   ports.Chunker
	registry  ports.ServiceRegistry

	maxUploadBytes int64
	workers        int
	metrics        IngestMetrics
	logger         *slog.Logger
}

type IngestOptions struct {
	MaxUploadBytes int64
	Workers        int
}

func NewIngestService(
	extractor ports.Extractor,
	chunker ports.Chunker,
	registry ports.ServiceRegistry,
	opts IngestOptions,
	metrics IngestMetrics,
	logger *slog.Logger,
) *IngestService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &IngestService{
		extractor:      extractor,
		chunker:        chunker,
		registry:       registry,
		maxUploadBytes: opts.MaxUploadBytes,
		workers:        opts.Workers,
		metrics:        metrics,
		logger:         logger,
	}
}

func (s *IngestService) ProcessDocument(ctx context.Context, file domain.SourceDocument) (int, error) {
	start := time.Now()
	chunks, err := s.process(ctx, file)
	if s.metrics != nil {
		s.metrics.RecordDocument("api", file.Area, chunks, time.Since(start), err)
	}
	return chunks, err
}

func (s *IngestService) process(ctx context.Context, file domain.SourceDocument) (int, error) {
	if file.Area == "" {
		return 0, domain.WrapError("ingest", file.Filename, domain.ErrValidation)
	}
	if int64(len(file.Data)) > s.maxUploadBytes {
		return 0, domain.WrapError("ingest",
			fmt.Sprintf("%s exceeds %d bytes", file.Filename, s.maxUploadBytes),
			domain.ErrValidation)
	}

	embedder, ok := s.registry.Embedder()
	if !ok {
		return 0, domain.WrapError("ingest", file.Filename, domain.ErrNotInitialized)
	}
	index, ok := s.registry.VectorIndex()
	if !ok {
		return 0, domain.WrapError("ingest", file.Filename, domain.ErrStoreUnavailable)
	}

	text, err := s.extractor.Extract(ctx, &file)
	if errors.Is(err, domain.ErrQuality) {
		// Scanned or garbled files are an expected outcome, not a failure.
		s.logger.Info("document skipped, content unreadable",
			"filename", file.Filename,
			"area", file.Area,
		)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(strings.TrimSpace(text)) < minIndexableChars {
		s.logger.Info("document skipped, no indexable content",
			"filename", file.Filename,
			"area", file.Area,
		)
		return 0, nil
	}

	segments := s.chunker.Split(text)
	if len(segments) == 0 {
		return 0, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, segments)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(segments) {
		return 0, domain.WrapError("ingest", file.Filename,
			fmt.Errorf("embedding count mismatch: %d segments, %d vectors", len(segments), len(vectors)))
	}

	uploaded := file.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, segment := range segments {
		chunks[i] = domain.Chunk{
			ID:        domain.ChunkID(file.Filename, i),
			Content:   segment,
			Embedding: vectors[i],
			Metadata: domain.ChunkMetadata{
				Filename:    file.Filename,
				FileType:    file.MimeType,
				ChunkIndex:  i,
				TotalChunks: len(segments),
				Area:        file.Area,
				UploadDate:  uploaded,
				FileSize:    file.SizeBytes,
			},
		}
	}

	if err := index.UpsertChunks(ctx, chunks); err != nil {
		return 0, err
	}

	s.logger.Info("document indexed",
		"filename", file.Filename,
		"area", file.Area,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

// ProcessBatch fans files out over a bounded worker pool. Results come
// back in input order and one bad file never aborts the rest.
func (s *IngestService) ProcessBatch(ctx context.Context, files []domain.SourceDocument) []domain.UploadResult {
	results := make([]domain.UploadResult, len(files))

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		// Pool creation only fails on invalid size; process serially.
		for i, file := range files {
			results[i] = s.processOne(ctx, file)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, file := range files {
		i, file := i, file
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = s.processOne(ctx, file)
		})
		if submitErr != nil {
			results[i] = domain.UploadResult{
				Filename: file.Filename,
				Status:   domain.UploadStatusError,
				Error:    submitErr.Error(),
			}
			wg.Done()
		}
	}
	wg.Wait()
	return results
}

func (s *IngestService) processOne(ctx context.Context, file domain.SourceDocument) domain.UploadResult {
	chunks, err := s.ProcessDocument(ctx, file)
	if err != nil {
		s.logger.Error("document processing failed",
			"filename", file.Filename,
			"area", file.Area,
			"error", err,
		)
		return domain.UploadResult{
			Filename: file.Filename,
			Status:   domain.UploadStatusError,
			Error:    err.Error(),
		}
	}
	return domain.UploadResult{
		Filename: file.Filename,
		Status:   domain.UploadStatusSuccess,
		Chunks:   chunks,
	}
}
