package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const analysisResponse = `{
	"summary": "Serializes cache writes behind a mutex.",
	"quality": {"readability": 150, "performance": -5, "security": "abc"},
	"suggestions": ["Consider sync.Map for read-heavy loads", ""],
	"potentialBugs": ["Lock is not taken on the read path"]
}`

func TestAnalyzeCommitClampsQuality(t *testing.T) {
	client := &fakeClient{response: analysisResponse}
	analyzer := NewCodeAnalyzer(client, Config{ReviewModel: "test/review"})

	result, err := analyzer.AnalyzeCommit(context.Background(), testCommits()[0], []string{"concurrency"})
	if err != nil {
		t.Fatalf("AnalyzeCommit: %v", err)
	}
	if result.Quality.Readability != 100 {
		t.Errorf("readability = %d, want clamped 100", result.Quality.Readability)
	}
	if result.Quality.Performance != 0 {
		t.Errorf("performance = %d, want clamped 0", result.Quality.Performance)
	}
	if result.Quality.Security != 75 {
		t.Errorf("security = %d, want default 75", result.Quality.Security)
	}
	if len(result.Suggestions) != 1 {
		t.Errorf("empty suggestion should be dropped, got %v", result.Suggestions)
	}
	if client.lastOpts.Temperature != 0.3 || client.lastOpts.MaxTokens != 6000 {
		t.Errorf("call options = %+v", client.lastOpts)
	}
}

func TestAnalyzeCommitMissingRequiredField(t *testing.T) {
	client := &fakeClient{response: `{
		"summary": "ok",
		"quality": {"readability": 80, "performance": 80, "security": 80},
		"suggestions": []
	}`}
	analyzer := NewCodeAnalyzer(client, Config{})

	_, err := analyzer.AnalyzeCommit(context.Background(), testCommits()[0], nil)
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "potentialBugs" {
		t.Fatalf("err = %v, want MissingFieldError for potentialBugs", err)
	}
}

func TestAnalysisPromptMentionsFocusAreas(t *testing.T) {
	client := &fakeClient{response: analysisResponse}
	analyzer := NewCodeAnalyzer(client, Config{})

	if _, err := analyzer.AnalyzeCommit(context.Background(), testCommits()[0], []string{"security", "performance"}); err != nil {
		t.Fatalf("AnalyzeCommit: %v", err)
	}
	if !strings.Contains(client.lastPrompt, "security, performance") {
		t.Error("prompt should list the requested focus areas")
	}
	if !strings.Contains(client.lastPrompt, "Go") {
		t.Error("prompt should name the detected language")
	}
}
