package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Question types after normalization. Anything else is dropped.
const (
	QuestionTypeMultiple = "multiple"
	QuestionTypeShort    = "short"
)

// QuizQuestion is a normalized question. For multiple-choice questions
// CorrectAnswer is always an int index into Options; for short-answer
// questions it is always a non-empty string.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	CodeContext   string   `json:"codeContext,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer any      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type QuizMetadata struct {
	TotalCommits   int    `json:"totalCommits"`
	RequestedCount int    `json:"requestedCount"`
	GeneratedCount int    `json:"generatedCount"`
	Difficulty     string `json:"difficulty"`
	SelectedTopic  string `json:"selectedTopic,omitempty"`
	GeneratedAt    string `json:"generatedAt"`
}

type QuizGenerationResult struct {
	Questions []QuizQuestion `json:"questions"`
	Metadata  QuizMetadata   `json:"metadata"`
}

// Quiz is the persisted row. QuestionsJSON stores normalized questions.
type Quiz struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	CommitSHAs      json.RawMessage `json:"commit_shas"`
	RepositoryInfo  json.RawMessage `json:"repository_info"`
	SelectedTopic   *string         `json:"selected_topic"`
	QuestionCount   int             `json:"question_count"`
	QuestionsJSON   json.RawMessage `json:"questions"`
	IsCompleted     bool            `json:"is_completed"`
	CompletedAt     *time.Time      `json:"completed_at"`
	Score           *float64        `json:"score"`
	CorrectAnswers  *int            `json:"correct_answers"`
	WrongAnswers    *int            `json:"wrong_answers"`
	DurationSeconds *int            `json:"duration_seconds"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at"`
}

type QuizAttempt struct {
	ID              uuid.UUID       `json:"id"`
	QuizID          uuid.UUID       `json:"quiz_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Score           float64         `json:"score"`
	CorrectAnswers  int             `json:"correct_answers"`
	WrongAnswers    int             `json:"wrong_answers"`
	AnswersJSON     json.RawMessage `json:"answers"`
	DurationSeconds *int            `json:"duration_seconds"`
	CreatedAt       time.Time       `json:"created_at"`
}

// GenerateQuizRequest drives synchronous quiz generation from commits.
type GenerateQuizRequest struct {
	CommitSHAs    []string `json:"commitShas"`
	QuestionCount int      `json:"questionCount"`
	Difficulty    string   `json:"difficulty"`
	SelectedTopic string   `json:"selectedTopic"`
}

// SaveQuizRequest persists a generated quiz under the user's account.
type SaveQuizRequest struct {
	Title          string          `json:"title"`
	Description    *string         `json:"description"`
	CommitSHAs     []string        `json:"commit_shas"`
	RepositoryInfo json.RawMessage `json:"repository_info"`
	SelectedTopic  *string         `json:"selected_topic"`
	Questions      []QuizQuestion  `json:"questions"`
}

type SubmitQuizRequest struct {
	UserAnswers     map[string]any `json:"user_answers"`
	DurationSeconds *int           `json:"duration_seconds"`
}

type AnswerResult struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    any    `json:"user_answer"`
	CorrectAnswer any    `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
}

type SubmitQuizResponse struct {
	QuizID         uuid.UUID      `json:"quiz_id"`
	Score          float64        `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	WrongAnswers   int            `json:"wrong_answers"`
	IsPassed       bool           `json:"is_passed"`
	Feedback       string         `json:"feedback"`
	Results        []AnswerResult `json:"results"`
}
