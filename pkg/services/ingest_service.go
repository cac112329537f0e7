package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/llm"
	"github.com/paceline-ai/paceline-engine/pkg/models"
	"github.com/paceline-ai/paceline-engine/pkg/repositories"
)

// IngestService embeds and stores activities fetched from the provider.
type IngestService interface {
	// IngestActivity embeds one source activity and upserts it, keyed by the
	// provider's activity ID.
	IngestActivity(ctx context.Context, source *models.SourceActivity) error

	// IngestAll ingests a batch, continuing past individual failures.
	// Returns the number of activities stored and the first error seen.
	IngestAll(ctx context.Context, sources []models.SourceActivity) (int, error)
}

type ingestService struct {
	llmClient      llm.LLMClient
	repo           repositories.ActivityRepository
	embeddingModel string
	logger         *zap.Logger
}

// NewIngestService creates a new IngestService. The embedding model must
// produce vectors of length models.EmbeddingDim.
func NewIngestService(llmClient llm.LLMClient, repo repositories.ActivityRepository, embeddingModel string, logger *zap.Logger) IngestService {
	return &ingestService{
		llmClient:      llmClient,
		repo:           repo,
		embeddingModel: embeddingModel,
		logger:         logger.Named("ingest-service"),
	}
}

var _ IngestService = (*ingestService)(nil)

func (s *ingestService) IngestActivity(ctx context.Context, source *models.SourceActivity) error {
	startTime, err := source.StartTime()
	if err != nil {
		return fmt.Errorf("activity %d: %w", source.ID, err)
	}

	embedding, err := s.llmClient.CreateEmbedding(ctx, source.Summary(), s.embeddingModel)
	if err != nil {
		return fmt.Errorf("embed activity %d: %w", source.ID, err)
	}
	if len(embedding) != models.EmbeddingDim {
		return fmt.Errorf("embed activity %d: got %d dimensions, want %d",
			source.ID, len(embedding), models.EmbeddingDim)
	}

	activity := &models.Activity{
		ActivityID:   source.ID,
		ActivityType: source.Type,
		Distance:     source.Distance,
		Duration:     source.ElapsedTime,
		Timestamp:    startTime,
		Embedding:    embedding,
	}
	if err := s.repo.Upsert(ctx, activity); err != nil {
		return err
	}

	s.logger.Debug("ingested activity",
		zap.Int64("activity_id", source.ID),
		zap.String("activity_type", source.Type))
	return nil
}

func (s *ingestService) IngestAll(ctx context.Context, sources []models.SourceActivity) (int, error) {
	var stored int
	var firstErr error
	for i := range sources {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		if err := s.IngestActivity(ctx, &sources[i]); err != nil {
			s.logger.Warn("skipping activity", zap.Int64("activity_id", sources[i].ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	return stored, firstErr
}
