// Package models holds the persistent domain types.
package models

import (
	"fmt"
	"time"
)

// EmbeddingDim is the fixed dimensionality of activity embeddings. Every row
// in the activities table carries a vector of exactly this length; similarity
// comparisons are only valid when dimensions match.
const EmbeddingDim = 384

// Activity is the canonical activity record stored in PostgreSQL. The
// pipeline never mutates these rows; the ingestion job owns writes, keyed by
// the upstream provider's activity ID.
type Activity struct {
	ActivityID   int64
	ActivityType string
	Distance     float64 // meters
	Duration     int     // seconds
	Timestamp    time.Time
	Embedding    []float32 // length EmbeddingDim
}

// SourceActivity is the upstream provider's JSON shape for one activity,
// as returned by the athlete activities endpoint.
type SourceActivity struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Distance    float64 `json:"distance"`
	ElapsedTime int     `json:"elapsed_time"`
	StartDate   string  `json:"start_date"` // ISO-8601, trailing Z = UTC
}

// Summary renders the short text the activity embedding is computed from.
func (a *SourceActivity) Summary() string {
	return fmt.Sprintf("%s %s %g meters in %d seconds", a.Name, a.Type, a.Distance, a.ElapsedTime)
}

// StartTime parses the ISO-8601 start date. A trailing Z is treated as a UTC
// offset.
func (a *SourceActivity) StartTime() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, a.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start date %q: %w", a.StartDate, err)
	}
	return ts, nil
}
