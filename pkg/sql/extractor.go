package sql

import (
	"strings"
)

// errorMarker is the literal token the generator (or the composer's failure
// path) emits at the start of its output to signal it could not produce a
// query. Matched case-insensitively against the normalized text.
const errorMarker = "error"

// Candidate is the extractor-normalized text proposed by the inference
// backend, not yet validated as safe or syntactically correct.
type Candidate struct {
	// Text is the normalized query text (or the error message when Rejected).
	Text string
	// Rejected is true when the output was classified as a generation-time
	// failure rather than a statement.
	Rejected bool
	// Reason carries the generator's message for rejected output.
	Reason string
}

// ExtractQuery strips code-fence decoration and surrounding whitespace from
// raw generated text, then classifies the result. Output starting with the
// error marker (case-insensitive) is Rejected; everything else is treated as
// an executable candidate.
//
// This is a deliberately lightweight heuristic: it does not parse SQL, so a
// syntactically invalid statement passes through and fails at execution time.
func ExtractQuery(raw string) Candidate {
	normalized := stripCodeFences(raw)

	if hasErrorMarker(normalized) {
		return Candidate{
			Text:     normalized,
			Rejected: true,
			Reason:   normalized,
		}
	}

	return Candidate{Text: normalized}
}

// stripCodeFences removes a leading fence marker (with any language tag) and
// a trailing fence marker, plus surrounding whitespace.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line, including tags like ```sql or ```postgresql.
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}

	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}

	return strings.TrimSpace(text)
}

// hasErrorMarker reports whether the normalized text begins with the
// generation-failure token.
func hasErrorMarker(text string) bool {
	if len(text) < len(errorMarker) {
		return false
	}
	return strings.EqualFold(text[:len(errorMarker)], errorMarker)
}
