package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidQuestions means every generated question was dropped by
	// normalization. Callers must not treat this as an empty quiz.
	ErrNoValidQuestions = errors.New("no valid questions survived normalization")

	ErrNoValidTopics   = errors.New("no valid topics survived normalization")
	ErrNoValidSections = errors.New("no valid sections survived normalization")
)

// MissingFieldError marks a structurally unusable response: a required
// top-level field is absent. Per-item problems are skipped instead.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("model response is missing required field %q", e.Field)
}
