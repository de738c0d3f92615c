package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"committutor-backend/internal/llm"
	"committutor-backend/internal/models"
)

// QuizGenerator turns commit diffs into a normalized quiz.
type QuizGenerator struct {
	client llm.Client
	cfg    Config
}

func NewQuizGenerator(client llm.Client, cfg Config) *QuizGenerator {
	return &QuizGenerator{client: client, cfg: cfg.withDefaults()}
}

func (g *QuizGenerator) GenerateQuiz(ctx context.Context, commits []models.CommitDetail, questionCount int, difficulty, selectedTopic string) (*models.QuizGenerationResult, error) {
	if questionCount <= 0 {
		questionCount = 5
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := buildQuizPrompt(g.cfg, commits, questionCount, difficulty, selectedTopic)
	raw, err := g.client.CompleteJSON(ctx, prompt, llm.Options{
		Model:       g.cfg.QuizModel,
		Temperature: 0.4,
		MaxTokens:   8000,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	var payload struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("quiz response has unexpected shape: %w", err)
	}
	if payload.Questions == nil {
		return nil, &MissingFieldError{Field: "questions"}
	}

	questions := normalizeQuestions(payload.Questions, g.cfg.MaxOptionsPerQuestion)
	if len(questions) == 0 {
		return nil, ErrNoValidQuestions
	}
	if len(questions) < questionCount {
		log.Printf("[QuizGenerator] %d of %d requested questions survived normalization", len(questions), questionCount)
	}

	return &models.QuizGenerationResult{
		Questions: questions,
		Metadata: models.QuizMetadata{
			TotalCommits:   len(commits),
			RequestedCount: questionCount,
			GeneratedCount: len(questions),
			Difficulty:     difficulty,
			SelectedTopic:  selectedTopic,
			GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
