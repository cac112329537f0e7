// Package format turns raw result rows into the stable, display-oriented
// shape returned to the user.
package format

import (
	"fmt"
	"time"

	"github.com/paceline-ai/paceline-engine/pkg/datasource"
)

// activityURLTemplate is the external reference for one activity.
const activityURLTemplate = "https://www.strava.com/activities/%v"

// unknownGlyph is used for activity types missing from the lookup table.
// Unknown types are never an error: the generated query controls which
// values appear here.
const unknownGlyph = "❓"

// activityGlyphs maps the literal activity type string to its display glyph.
var activityGlyphs = map[string]string{
	"Run":       "🏃",
	"Ride":      "🚴",
	"Swim":      "🏊",
	"Walk":      "🚶",
	"Hike":      "🥾",
	"Workout":   "💪",
	"Rowing":    "🚣",
	"AlpineSki": "⛷️",
}

// timestampLayouts are tried in order when the store hands the timestamp
// back as text. The value's own offset (or lack of one) is preserved; no
// timezone conversion happens here.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormattedRow maps display field names to rendered values.
type FormattedRow map[string]any

// Rows renders every row of a query result, preserving store order exactly.
// Recognized columns (matched case-sensitively by name) are renamed and
// rendered; everything else passes through unchanged. The formatter is total
// over whatever column set the generated query returned - the output shape
// is inherently query-dependent.
func Rows(result *datasource.QueryResult) []FormattedRow {
	formatted := make([]FormattedRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		formatted = append(formatted, Row(row))
	}
	return formatted
}

// Row renders a single raw row.
func Row(row map[string]any) FormattedRow {
	out := make(FormattedRow, len(row))
	for name, value := range row {
		switch name {
		case "activity_type":
			out["Activity"] = glyphFor(value)
		case "distance":
			out["Distance"] = renderDistance(value)
		case "duration":
			out["Duration"] = renderDuration(value)
		case "timestamp":
			out["Date"] = renderTimestamp(value)
		case "activity_id":
			out["Link"] = renderLink(value)
		default:
			out[name] = value
		}
	}
	return out
}

func glyphFor(value any) string {
	name, ok := value.(string)
	if !ok {
		return unknownGlyph
	}
	if glyph, ok := activityGlyphs[name]; ok {
		return glyph
	}
	return unknownGlyph
}

// renderDistance converts meters to kilometers with one decimal digit.
func renderDistance(value any) any {
	meters, ok := toFloat(value)
	if !ok {
		return value
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// renderDuration decomposes whole seconds into hours and minutes using
// floor division; leftover seconds are dropped, not rounded.
func renderDuration(value any) any {
	seconds, ok := toInt(value)
	if !ok {
		return value
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func renderTimestamp(value any) any {
	switch ts := value.(type) {
	case time.Time:
		return ts.Format("2006-01-02 15:04")
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, ts); err == nil {
				return parsed.Format("2006-01-02 15:04")
			}
		}
		return ts
	default:
		return value
	}
}

func renderLink(value any) string {
	url := fmt.Sprintf(activityURLTemplate, value)
	return fmt.Sprintf(`<a href="%s" target="_blank">View Activity</a>`, url)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
