package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/llm"
	"github.com/paceline-ai/paceline-engine/pkg/models"
)

type fakeActivityRepo struct {
	upserted  []*models.Activity
	upsertErr error
}

func (f *fakeActivityRepo) Upsert(ctx context.Context, activity *models.Activity) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, activity)
	return nil
}

func (f *fakeActivityRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.upserted)), nil
}

func (f *fakeActivityRepo) Get(ctx context.Context, activityID int64) (*models.Activity, error) {
	for _, a := range f.upserted {
		if a.ActivityID == activityID {
			return a, nil
		}
	}
	return nil, nil
}

func embeddingOfDim(dim int) []float32 {
	return make([]float32, dim)
}

func sourceActivity(id int64) models.SourceActivity {
	return models.SourceActivity{
		ID:          id,
		Name:        "Morning Run",
		Type:        "Run",
		Distance:    10000,
		ElapsedTime: 5400,
		StartDate:   "2024-01-01T06:00:00Z",
	}
}

func TestIngestActivity_EmbedsSummary(t *testing.T) {
	var embeddedInput string
	mock := &llm.MockLLMClient{
		CreateEmbeddingFunc: func(ctx context.Context, input, model string) ([]float32, error) {
			embeddedInput = input
			return embeddingOfDim(models.EmbeddingDim), nil
		},
	}
	repo := &fakeActivityRepo{}
	svc := NewIngestService(mock, repo, "all-minilm", zap.NewNop())

	source := sourceActivity(42)
	require.NoError(t, svc.IngestActivity(context.Background(), &source))

	assert.Equal(t, "Morning Run Run 10000 meters in 5400 seconds", embeddedInput)

	require.Len(t, repo.upserted, 1)
	stored := repo.upserted[0]
	assert.Equal(t, int64(42), stored.ActivityID)
	assert.Equal(t, "Run", stored.ActivityType)
	assert.Equal(t, 10000.0, stored.Distance)
	assert.Equal(t, 5400, stored.Duration)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), stored.Timestamp.UTC())
	assert.Len(t, stored.Embedding, models.EmbeddingDim)
}

func TestIngestActivity_RejectsWrongDimension(t *testing.T) {
	mock := &llm.MockLLMClient{
		CreateEmbeddingFunc: func(ctx context.Context, input, model string) ([]float32, error) {
			return embeddingOfDim(768), nil
		},
	}
	repo := &fakeActivityRepo{}
	svc := NewIngestService(mock, repo, "all-minilm", zap.NewNop())

	source := sourceActivity(1)
	err := svc.IngestActivity(context.Background(), &source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
	assert.Empty(t, repo.upserted)
}

func TestIngestActivity_BadStartDate(t *testing.T) {
	mock := &llm.MockLLMClient{}
	repo := &fakeActivityRepo{}
	svc := NewIngestService(mock, repo, "all-minilm", zap.NewNop())

	source := sourceActivity(1)
	source.StartDate = "not-a-date"
	err := svc.IngestActivity(context.Background(), &source)
	require.Error(t, err)
	assert.Zero(t, mock.CreateEmbeddingCalls, "unparseable activity must not be embedded")
}

func TestIngestAll_ContinuesPastFailures(t *testing.T) {
	embedErr := errors.New("backend unavailable")
	mock := &llm.MockLLMClient{
		CreateEmbeddingFunc: func(ctx context.Context, input, model string) ([]float32, error) {
			if input == "Flaky Ride 1000 meters in 60 seconds" {
				return nil, embedErr
			}
			return embeddingOfDim(models.EmbeddingDim), nil
		},
	}
	repo := &fakeActivityRepo{}
	svc := NewIngestService(mock, repo, "all-minilm", zap.NewNop())

	flaky := models.SourceActivity{
		ID: 2, Name: "Flaky", Type: "Ride", Distance: 1000, ElapsedTime: 60,
		StartDate: "2024-01-02T06:00:00Z",
	}
	sources := []models.SourceActivity{sourceActivity(1), flaky, sourceActivity(3)}

	stored, err := svc.IngestAll(context.Background(), sources)
	assert.Equal(t, 2, stored)
	assert.ErrorIs(t, err, embedErr)
}
