// Package repositories provides data access for the persistent domain types.
package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/paceline-ai/paceline-engine/pkg/models"
)

// ActivityRepository defines the interface for activity persistence.
type ActivityRepository interface {
	// Upsert inserts an activity or updates the existing row keyed by the
	// provider's activity ID. Re-running ingestion over the same window is
	// therefore idempotent.
	Upsert(ctx context.Context, activity *models.Activity) error

	// Count returns the number of stored activities.
	Count(ctx context.Context) (int64, error)

	// Get retrieves one activity by its provider ID. Returns nil, nil when
	// no row exists.
	Get(ctx context.Context, activityID int64) (*models.Activity, error)
}

// Execer is the subset of pgxpool.Pool the repository needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type activityRepository struct {
	db Execer
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db Execer) ActivityRepository {
	return &activityRepository{db: db}
}

var _ ActivityRepository = (*activityRepository)(nil)

// Upsert writes one activity. The embedding is passed as a vector literal so
// the statement works against the pgvector column without a custom codec.
func (r *activityRepository) Upsert(ctx context.Context, activity *models.Activity) error {
	if len(activity.Embedding) != models.EmbeddingDim {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(activity.Embedding), models.EmbeddingDim)
	}

	query := `
		INSERT INTO activities (activity_id, activity_type, distance, duration, timestamp, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
		ON CONFLICT (activity_id) DO UPDATE SET
			activity_type = EXCLUDED.activity_type,
			distance = EXCLUDED.distance,
			duration = EXCLUDED.duration,
			timestamp = EXCLUDED.timestamp,
			embedding = EXCLUDED.embedding`

	_, err := r.db.Exec(ctx, query,
		activity.ActivityID,
		activity.ActivityType,
		activity.Distance,
		activity.Duration,
		activity.Timestamp,
		VectorLiteral(activity.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert activity %d: %w", activity.ActivityID, err)
	}
	return nil
}

// Count returns the number of stored activities.
func (r *activityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

// Get retrieves one activity by its provider ID.
func (r *activityRepository) Get(ctx context.Context, activityID int64) (*models.Activity, error) {
	query := `
		SELECT activity_id, activity_type, distance, duration, timestamp, embedding::text
		FROM activities
		WHERE activity_id = $1`

	var activity models.Activity
	var embeddingText string
	err := r.db.QueryRow(ctx, query, activityID).Scan(
		&activity.ActivityID,
		&activity.ActivityType,
		&activity.Distance,
		&activity.Duration,
		&activity.Timestamp,
		&embeddingText,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity %d: %w", activityID, err)
	}

	embedding, err := ParseVectorLiteral(embeddingText)
	if err != nil {
		return nil, fmt.Errorf("get activity %d: %w", activityID, err)
	}
	activity.Embedding = embedding
	return &activity, nil
}

// VectorLiteral renders an embedding in pgvector's input syntax,
// e.g. "[0.1,0.2,0.3]".
func VectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVectorLiteral parses pgvector's text output back into a float slice.
func ParseVectorLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}
	s = strings.Trim(s, "[]")
	if s == "" {
		return []float32{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", part, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
