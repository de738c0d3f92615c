package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"committutor-backend/internal/llm"
	"committutor-backend/internal/models"
)

// CodeAnalyzer produces a structured review of a single commit.
type CodeAnalyzer struct {
	client llm.Client
	cfg    Config
}

func NewCodeAnalyzer(client llm.Client, cfg Config) *CodeAnalyzer {
	return &CodeAnalyzer{client: client, cfg: cfg.withDefaults()}
}

// Every top-level field of the review payload is required; a response
// missing one is unusable, not degradable.
var analysisRequiredFields = []string{"summary", "quality", "suggestions", "potentialBugs"}

func (a *CodeAnalyzer) AnalyzeCommit(ctx context.Context, commit models.CommitDetail, focusAreas []string) (*models.AIAnalysisResult, error) {
	prompt := buildAnalysisPrompt(a.cfg, commit, focusAreas)
	raw, err := a.client.CompleteJSON(ctx, prompt, llm.Options{
		Model:       a.cfg.ReviewModel,
		Temperature: 0.3,
		MaxTokens:   6000,
	})
	if err != nil {
		return nil, fmt.Errorf("commit analysis failed: %w", err)
	}
	return parseAnalysisPayload(raw)
}

func parseAnalysisPayload(raw json.RawMessage) (*models.AIAnalysisResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("analysis response has unexpected shape: %w", err)
	}
	for _, field := range analysisRequiredFields {
		if _, ok := fields[field]; !ok {
			return nil, &MissingFieldError{Field: field}
		}
	}

	var summary string
	if err := json.Unmarshal(fields["summary"], &summary); err != nil || strings.TrimSpace(summary) == "" {
		return nil, &MissingFieldError{Field: "summary"}
	}

	return &models.AIAnalysisResult{
		Summary:       strings.TrimSpace(summary),
		Quality:       normalizeQuality(fields["quality"]),
		Suggestions:   normalizeStringList(fields["suggestions"]),
		PotentialBugs: normalizeStringList(fields["potentialBugs"]),
	}, nil
}
