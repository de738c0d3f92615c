package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ReviewSection struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"key_points,omitempty"`
	Examples  []string `json:"examples,omitempty"`
}

// ReviewDocument is the generated study write-up for a completed quiz.
type ReviewDocument struct {
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	Sections        []ReviewSection `json:"sections"`
	RelatedConcepts []string        `json:"related_concepts,omitempty"`
	FurtherReading  []string        `json:"further_reading,omitempty"`
}

// Review is the persisted row, one per quiz.
type Review struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	QuizID          uuid.UUID       `json:"quiz_id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	SectionsJSON    json.RawMessage `json:"sections"`
	RelatedConcepts json.RawMessage `json:"related_concepts"`
	FurtherReading  json.RawMessage `json:"further_reading"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at"`

	// Joined for list/detail responses.
	QuizTitle string   `json:"quiz_title,omitempty"`
	QuizScore *float64 `json:"quiz_score,omitempty"`
}

type GenerateReviewRequest struct {
	QuizID uuid.UUID `json:"quiz_id"`
}
