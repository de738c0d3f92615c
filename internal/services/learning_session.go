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

// LearningSessionResult bundles the quiz and review generated from one
// model call. A member that failed its own normalization is nil.
type LearningSessionResult struct {
	Quiz   *models.QuizGenerationResult `json:"quiz"`
	Review *models.AIAnalysisResult     `json:"review"`
}

// LearningSessionService generates a quiz and a code review for the
// same commits with a single model call instead of two.
type LearningSessionService struct {
	client llm.Client
	cfg    Config
}

func NewLearningSessionService(client llm.Client, cfg Config) *LearningSessionService {
	return &LearningSessionService{client: client, cfg: cfg.withDefaults()}
}

func (s *LearningSessionService) GenerateSession(ctx context.Context, commits []models.CommitDetail, questionCount int, difficulty string) (*LearningSessionResult, error) {
	if questionCount <= 0 {
		questionCount = 5
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := buildSessionPrompt(s.cfg, commits, questionCount, difficulty)
	raw, err := s.client.CompleteJSON(ctx, prompt, llm.Options{
		Model:       s.cfg.QuizModel,
		Temperature: 0.4,
		MaxTokens:   10000,
	})
	if err != nil {
		return nil, fmt.Errorf("session generation failed: %w", err)
	}

	var payload struct {
		Quiz   json.RawMessage `json:"quiz"`
		Review json.RawMessage `json:"review"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("session response has unexpected shape: %w", err)
	}
	// Both halves must at least be present; each is then normalized on
	// its own, so one bad half does not sink the other.
	if payload.Quiz == nil {
		return nil, &MissingFieldError{Field: "quiz"}
	}
	if payload.Review == nil {
		return nil, &MissingFieldError{Field: "review"}
	}

	result := &LearningSessionResult{}

	var quizPayload struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(payload.Quiz, &quizPayload); err != nil || quizPayload.Questions == nil {
		log.Printf("[LearningSession] quiz half unusable: %v", err)
	} else if questions := normalizeQuestions(quizPayload.Questions, s.cfg.MaxOptionsPerQuestion); len(questions) > 0 {
		result.Quiz = &models.QuizGenerationResult{
			Questions: questions,
			Metadata: models.QuizMetadata{
				TotalCommits:   len(commits),
				RequestedCount: questionCount,
				GeneratedCount: len(questions),
				Difficulty:     difficulty,
				GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
			},
		}
	} else {
		log.Printf("[LearningSession] quiz half dropped: no valid questions")
	}

	review, err := parseAnalysisPayload(payload.Review)
	if err != nil {
		log.Printf("[LearningSession] review half dropped: %v", err)
	} else {
		result.Review = review
	}

	if result.Quiz == nil && result.Review == nil {
		return nil, fmt.Errorf("session response unusable: %w", ErrNoValidQuestions)
	}
	return result, nil
}
