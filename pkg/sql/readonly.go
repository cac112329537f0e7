package sql

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrNotReadOnly indicates the statement is not a plain read.
	ErrNotReadOnly = errors.New("only read-only SELECT statements are permitted")
)

// forbiddenKeywords are statement types and side-effecting verbs that must
// never appear in a generated query, even inside a CTE. Matched as whole
// word tokens outside string literals, so identifiers like updated_at pass.
var forbiddenKeywords = map[string]struct{}{
	"insert":   {},
	"update":   {},
	"delete":   {},
	"merge":    {},
	"create":   {},
	"alter":    {},
	"drop":     {},
	"truncate": {},
	"grant":    {},
	"revoke":   {},
	"copy":     {},
	"call":     {},
	"do":       {},
	"vacuum":   {},
	"analyze":  {},
	"set":      {},
	"reset":    {},
	"listen":   {},
	"notify":   {},
	"prepare":  {},
	"execute":  {},
	"lock":     {},
}

// EnsureReadOnly rejects any statement that is not a single read. The
// statement must open with SELECT or WITH, and no side-effecting keyword may
// appear anywhere outside string literals. The keyword scan also catches
// data-modifying CTEs such as WITH x AS (DELETE ... RETURNING *). The
// executor additionally runs on a read-only session.
func EnsureReadOnly(sqlQuery string) error {
	trimmed := strings.TrimSpace(sqlQuery)
	if trimmed == "" {
		return ErrNotReadOnly
	}

	first := firstWord(trimmed)
	if first != "select" && first != "with" {
		return fmt.Errorf("%w: statement begins with %q", ErrNotReadOnly, first)
	}

	for _, word := range wordsOutsideStrings(trimmed) {
		if _, forbidden := forbiddenKeywords[word]; forbidden {
			return fmt.Errorf("%w: statement contains %q", ErrNotReadOnly, word)
		}
	}

	return nil
}

func firstWord(s string) string {
	for i, r := range s {
		if !isWordRune(r) {
			return strings.ToLower(s[:i])
		}
	}
	return strings.ToLower(s)
}

// wordsOutsideStrings tokenizes the statement into lowercase identifier-like
// words, skipping the contents of single- and double-quoted literals.
func wordsOutsideStrings(sqlQuery string) []string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	var words []string
	var current strings.Builder
	state := stateNormal

	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	// Exit a string on any closing quote. Under standard_conforming_strings
	// a backslash is a literal character, so treating \' as an escape would
	// let the scanner desynchronize from the server's reading of the
	// statement. A doubled quote ('') exits and immediately re-enters, which
	// keeps us inside the string.
	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch {
			case char == '\'':
				flush()
				state = stateSingleQuote
			case char == '"':
				flush()
				state = stateDoubleQuote
			case isWordRune(char):
				current.WriteRune(char)
			default:
				flush()
			}
		case stateSingleQuote:
			if char == '\'' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' {
				state = stateNormal
			}
		}
	}
	flush()

	return words
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
