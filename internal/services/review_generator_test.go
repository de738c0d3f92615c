package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"committutor-backend/internal/models"
)

const reviewDocResponse = `{
	"title": "Mutex fundamentals",
	"summary": "You missed why defer pairs with Lock.",
	"sections": [
		{"title": "Lock/Unlock pairing", "content": "Defer ties the unlock to function exit...", "key_points": ["Defer runs on every return path"]},
		{"title": "", "content": "dropped, no title"}
	],
	"related_concepts": ["sync.RWMutex"],
	"further_reading": ["Go memory model"]
}`

func gradedQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{ID: "q1", Type: models.QuestionTypeMultiple, Question: "Why lock?", Options: []string{"Safety", "Speed"}, CorrectAnswer: 0},
		{ID: "q2", Type: models.QuestionTypeMultiple, Question: "Why defer?", Options: []string{"Style", "Unlock on every path"}, CorrectAnswer: 1},
		{ID: "q3", Type: models.QuestionTypeShort, Question: "Which package?", CorrectAnswer: "sync"},
	}
}

func TestAnswersMatchCoercion(t *testing.T) {
	tests := []struct {
		name    string
		user    any
		correct any
		want    bool
	}{
		{"same int", 1, 1, true},
		{"float vs int", float64(1), 1, true},
		{"string vs int", "1", 1, true},
		{"string case insensitive", "SYNC", "sync", true},
		{"mismatch", 0, 1, false},
		{"nil user answer", nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnswersMatch(tt.user, tt.correct); got != tt.want {
				t.Errorf("AnswersMatch(%v, %v) = %v, want %v", tt.user, tt.correct, got, tt.want)
			}
		})
	}
}

func TestGenerateReviewDocumentPartitionsAnswers(t *testing.T) {
	client := &fakeClient{response: reviewDocResponse}
	gen := NewReviewGenerator(client, Config{ReviewModel: "test/review"})

	// q1 right (string-coerced index), q2 wrong, q3 right.
	userAnswers := map[string]any{"q1": "0", "q2": float64(0), "q3": "Sync"}
	doc, err := gen.GenerateReviewDocument(context.Background(), "Cache quiz", "concurrency", gradedQuestions(), userAnswers, 66.7)
	if err != nil {
		t.Fatalf("GenerateReviewDocument: %v", err)
	}

	wrongBlock := client.lastPrompt[strings.Index(client.lastPrompt, "answered wrong"):]
	correctBlock := wrongBlock[strings.Index(wrongBlock, "answered correctly"):]
	wrongBlock = wrongBlock[:strings.Index(wrongBlock, "answered correctly")]
	if !strings.Contains(wrongBlock, "Why defer?") {
		t.Error("q2 should be in the wrong set")
	}
	if !strings.Contains(correctBlock, "Why lock?") || !strings.Contains(correctBlock, "Which package?") {
		t.Error("q1 and q3 should be in the correct set")
	}

	if doc.Title != "Mutex fundamentals" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Sections) != 1 {
		t.Errorf("sections = %d, want 1 (untitled section dropped)", len(doc.Sections))
	}
	if client.lastOpts.Temperature != 0.5 || client.lastOpts.MaxTokens != 6000 {
		t.Errorf("call options = %+v", client.lastOpts)
	}
}

func TestGenerateReviewDocumentMissingSummary(t *testing.T) {
	client := &fakeClient{response: `{"title": "T", "sections": []}`}
	gen := NewReviewGenerator(client, Config{})

	_, err := gen.GenerateReviewDocument(context.Background(), "Quiz", "", gradedQuestions(), nil, 0)
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "summary" {
		t.Fatalf("err = %v, want MissingFieldError for summary", err)
	}
}

func TestGenerateReviewDocumentNoValidSections(t *testing.T) {
	client := &fakeClient{response: `{"title": "T", "summary": "S", "sections": [{"title": "x"}]}`}
	gen := NewReviewGenerator(client, Config{})

	_, err := gen.GenerateReviewDocument(context.Background(), "Quiz", "", gradedQuestions(), nil, 0)
	if !errors.Is(err, ErrNoValidSections) {
		t.Fatalf("err = %v, want ErrNoValidSections", err)
	}
}
