package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"committutor-backend/internal/llm"
	"committutor-backend/internal/models"
)

// ReviewGenerator writes a study document from a graded quiz.
type ReviewGenerator struct {
	client llm.Client
	cfg    Config
}

func NewReviewGenerator(client llm.Client, cfg Config) *ReviewGenerator {
	return &ReviewGenerator{client: client, cfg: cfg.withDefaults()}
}

// AnswersMatch compares a submitted answer to the stored correct answer,
// tolerating the numeric/string type drift that JSON round-trips cause.
func AnswersMatch(userAnswer, correctAnswer any) bool {
	if userAnswer == nil || correctAnswer == nil {
		return false
	}
	if userAnswer == correctAnswer {
		return true
	}
	ua, ca := anyToText(userAnswer), anyToText(correctAnswer)
	return ua != "" && strings.EqualFold(ua, ca)
}

func (g *ReviewGenerator) GenerateReviewDocument(ctx context.Context, quizTitle, selectedTopic string, questions []models.QuizQuestion, userAnswers map[string]any, score float64) (*models.ReviewDocument, error) {
	var correct, wrong []answeredQuestion
	for _, q := range questions {
		item := answeredQuestion{Question: q, UserAnswer: userAnswers[q.ID]}
		if AnswersMatch(item.UserAnswer, q.CorrectAnswer) {
			correct = append(correct, item)
		} else {
			wrong = append(wrong, item)
		}
	}

	prompt := buildReviewDocumentPrompt(g.cfg, quizTitle, selectedTopic, correct, wrong, score)
	raw, err := g.client.CompleteJSON(ctx, prompt, llm.Options{
		Model:       g.cfg.ReviewModel,
		Temperature: 0.5,
		MaxTokens:   6000,
	})
	if err != nil {
		return nil, fmt.Errorf("review document generation failed: %w", err)
	}

	var payload struct {
		Title           string            `json:"title"`
		Summary         string            `json:"summary"`
		Sections        []json.RawMessage `json:"sections"`
		RelatedConcepts json.RawMessage   `json:"related_concepts"`
		FurtherReading  json.RawMessage   `json:"further_reading"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("review document has unexpected shape: %w", err)
	}
	if strings.TrimSpace(payload.Title) == "" {
		return nil, &MissingFieldError{Field: "title"}
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return nil, &MissingFieldError{Field: "summary"}
	}
	if payload.Sections == nil {
		return nil, &MissingFieldError{Field: "sections"}
	}

	sections := normalizeSections(payload.Sections)
	if len(sections) == 0 {
		return nil, ErrNoValidSections
	}

	return &models.ReviewDocument{
		Title:           strings.TrimSpace(payload.Title),
		Summary:         strings.TrimSpace(payload.Summary),
		Sections:        sections,
		RelatedConcepts: normalizeStringList(payload.RelatedConcepts),
		FurtherReading:  normalizeStringList(payload.FurtherReading),
	}, nil
}
