package apperrors

import "errors"

var (
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrNoResult      = errors.New("store returned no result set")
	ErrTokenNotFound = errors.New("no saved token")
)
