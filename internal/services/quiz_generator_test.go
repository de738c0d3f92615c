package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const quizFiveQuestionsOneBad = `{
	"questions": [
		{"id": "q1", "question": "Why lock before the map write?", "options": ["Safety", "Speed", "Ordering", "Logging"], "correctAnswer": 0},
		{"question": "What does defer guarantee here?", "options": ["Unlock on every return path", "Faster unlock"], "correctAnswer": "Unlock on every return path"},
		{"question": "missing options entirely", "type": "multiple", "correctAnswer": 1},
		{"question": "What does the timeout prevent?", "options": ["Hung requests", "Retries", "Redirects", "Caching"], "correctAnswer": "option 1"},
		{"question": "Which package provides Mutex?", "options": ["sync", "context", "time", "net"], "correctAnswer": "SYNC"}
	]
}`

func TestGenerateQuizDropsInvalidQuestions(t *testing.T) {
	client := &fakeClient{response: quizFiveQuestionsOneBad}
	gen := NewQuizGenerator(client, Config{QuizModel: "test/quiz"})

	result, err := gen.GenerateQuiz(context.Background(), testCommits(), 5, "medium", "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if len(result.Questions) != 4 {
		t.Fatalf("questions = %d, want 4", len(result.Questions))
	}
	if result.Metadata.GeneratedCount != 4 || result.Metadata.RequestedCount != 5 {
		t.Errorf("metadata = %+v", result.Metadata)
	}
	if result.Metadata.TotalCommits != 2 {
		t.Errorf("totalCommits = %d, want 2", result.Metadata.TotalCommits)
	}
	if client.lastOpts.Model != "test/quiz" || client.lastOpts.Temperature != 0.4 || client.lastOpts.MaxTokens != 8000 {
		t.Errorf("call options = %+v", client.lastOpts)
	}
}

func TestGenerateQuizFencedResponse(t *testing.T) {
	client := &fakeClient{response: "```json\n" + quizFiveQuestionsOneBad + "\n```"}
	gen := NewQuizGenerator(client, Config{})

	result, err := gen.GenerateQuiz(context.Background(), testCommits(), 5, "easy", "")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if len(result.Questions) != 4 {
		t.Errorf("questions = %d, want 4", len(result.Questions))
	}
}

func TestGenerateQuizTruncatedResponseRepaired(t *testing.T) {
	truncated := `{"questions": [{"id": "q1", "question": "Why lock?", "options": ["Safety", "Speed", "Ordering", "Logging"], "correctAnswer": 0}, {"question": "cut off mid`
	client := &fakeClient{response: truncated}
	gen := NewQuizGenerator(client, Config{})

	result, err := gen.GenerateQuiz(context.Background(), testCommits(), 2, "medium", "")
	if err != nil {
		t.Fatalf("GenerateQuiz should survive via repair, got %v", err)
	}
	// The repaired tail question has no options or answer, so only the
	// complete one survives.
	if len(result.Questions) != 1 {
		t.Errorf("questions = %d, want 1", len(result.Questions))
	}
}

func TestGenerateQuizZeroSurvivors(t *testing.T) {
	client := &fakeClient{response: `{"questions": [
		{"question": "no answer", "options": ["a", "b"]},
		{"question": "also none", "options": ["c", "d"]}
	]}`}
	gen := NewQuizGenerator(client, Config{})

	_, err := gen.GenerateQuiz(context.Background(), testCommits(), 2, "medium", "")
	if !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("err = %v, want ErrNoValidQuestions", err)
	}
}

func TestGenerateQuizMissingQuestionsField(t *testing.T) {
	client := &fakeClient{response: `{"data": []}`}
	gen := NewQuizGenerator(client, Config{})

	_, err := gen.GenerateQuiz(context.Background(), testCommits(), 2, "medium", "")
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "questions" {
		t.Fatalf("err = %v, want MissingFieldError for questions", err)
	}
}

func TestGenerateQuizPropagatesClientError(t *testing.T) {
	wantErr := errors.New("provider down")
	client := &fakeClient{err: wantErr}
	gen := NewQuizGenerator(client, Config{})

	_, err := gen.GenerateQuiz(context.Background(), testCommits(), 2, "medium", "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped provider error", err)
	}
}

func TestQuizPromptTopicConditioning(t *testing.T) {
	client := &fakeClient{response: quizFiveQuestionsOneBad}
	gen := NewQuizGenerator(client, Config{})

	if _, err := gen.GenerateQuiz(context.Background(), testCommits(), 3, "hard", "goroutine leaks"); err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if !strings.Contains(client.lastPrompt, "goroutine leaks") {
		t.Error("prompt should name the selected topic")
	}
	if !strings.Contains(client.lastPrompt, "Do NOT copy the literal diff") {
		t.Error("topic conditioning should forbid reusing the literal diff")
	}

	if _, err := gen.GenerateQuiz(context.Background(), testCommits(), 3, "hard", ""); err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if strings.Contains(client.lastPrompt, "Focus topic") {
		t.Error("no topic block expected without a selected topic")
	}
}

func TestQuizPromptTruncatesLargeDiffs(t *testing.T) {
	commits := testCommits()
	commits[0].Files[0].Patch = strings.Repeat("+added line\n", 500)

	client := &fakeClient{response: quizFiveQuestionsOneBad}
	gen := NewQuizGenerator(client, Config{MaxPatchChars: 300})

	if _, err := gen.GenerateQuiz(context.Background(), commits, 3, "medium", ""); err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if !strings.Contains(client.lastPrompt, "... (truncated) ...") {
		t.Error("oversized patch should be truncated with a marker")
	}
}
