package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paceline-ai/paceline-engine/pkg/datasource"
)

func TestRow_RendersKnownColumns(t *testing.T) {
	row := map[string]any{
		"activity_type": "Run",
		"distance":      10000.0,
		"duration":      5400,
		"timestamp":     "2024-01-01T06:00:00",
		"activity_id":   42,
	}

	got := Row(row)

	assert.Equal(t, "🏃", got["Activity"])
	assert.Equal(t, "10.0 km", got["Distance"])
	assert.Equal(t, "1h 30m", got["Duration"])
	assert.Equal(t, "2024-01-01 06:00", got["Date"])
	assert.Contains(t, got["Link"], "https://www.strava.com/activities/42")
	assert.Contains(t, got["Link"], "<a href=")
	assert.Len(t, got, 5)
}

func TestRow_UnknownActivityTypeGetsUnknownGlyph(t *testing.T) {
	got := Row(map[string]any{"activity_type": "Velomobile"})
	assert.Equal(t, unknownGlyph, got["Activity"])
}

func TestRow_PassesThroughUnrecognizedColumns(t *testing.T) {
	got := Row(map[string]any{"similarity_score": 0.87})
	assert.Equal(t, FormattedRow{"similarity_score": 0.87}, got)
}

func TestRow_TotalOverArbitraryShapes(t *testing.T) {
	// The generated query controls the column set; nothing here may fail.
	rows := []map[string]any{
		{},
		{"total_activities": int64(12), "activity_month": "2024-03-01T00:00:00"},
		{"distance": "not-a-number"},
		{"duration": nil},
		{"timestamp": "unparseable"},
		{"activity_type": 99},
	}

	for _, row := range rows {
		assert.NotPanics(t, func() { Row(row) })
	}

	// Unparseable values degrade to passthrough rather than failing.
	assert.Equal(t, "not-a-number", Row(rows[2])["Distance"])
	assert.Equal(t, "unparseable", Row(rows[4])["Date"])
	assert.Equal(t, unknownGlyph, Row(rows[5])["Activity"])
}

func TestRenderDuration_FloorDivision(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{5400, "1h 30m"},
		{59, "0h 0m"},
		{60, "0h 1m"},
		{3599, "0h 59m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{86400, "24h 0m"},
	}

	for _, tt := range tests {
		got := Row(map[string]any{"duration": tt.seconds})
		assert.Equal(t, tt.expected, got["Duration"], "seconds=%d", tt.seconds)
	}
}

func TestRenderTimestamp_NoTimezoneConversion(t *testing.T) {
	// Timezone-aware text keeps its own offset.
	got := Row(map[string]any{"timestamp": "2024-06-15T18:30:00+02:00"})
	assert.Equal(t, "2024-06-15 18:30", got["Date"])

	// time.Time values format in their own location.
	loc := time.FixedZone("UTC+2", 2*3600)
	got = Row(map[string]any{"timestamp": time.Date(2024, 6, 15, 18, 30, 0, 0, loc)})
	assert.Equal(t, "2024-06-15 18:30", got["Date"])
}

func TestRows_PreservesOrder(t *testing.T) {
	result := &datasource.QueryResult{
		Columns: []datasource.ColumnInfo{
			{Name: "activity_id", Type: "INT8"},
			{Name: "distance", Type: "FLOAT8"},
		},
		Rows: []map[string]any{
			{"activity_id": int64(3), "distance": 5000.0},
			{"activity_id": int64(1), "distance": 21097.5},
			{"activity_id": int64(2), "distance": 400.0},
		},
		RowCount: 3,
	}

	got := Rows(result)
	require.Len(t, got, 3)

	// Row order is exactly as returned by the store - no re-sorting.
	assert.Contains(t, got[0]["Link"], "/activities/3")
	assert.Contains(t, got[1]["Link"], "/activities/1")
	assert.Contains(t, got[2]["Link"], "/activities/2")
	assert.Equal(t, "21.1 km", got[1]["Distance"])
}
