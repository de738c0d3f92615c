package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"committutor-backend/internal/llm"
	"committutor-backend/internal/models"
)

// TopicExtractor distills commit activity into study topics.
type TopicExtractor struct {
	client llm.Client
	cfg    Config
}

func NewTopicExtractor(client llm.Client, cfg Config) *TopicExtractor {
	return &TopicExtractor{client: client, cfg: cfg.withDefaults()}
}

func (e *TopicExtractor) ExtractTopics(ctx context.Context, commits []models.CommitDetail) (*models.TopicExtractionResult, error) {
	prompt := buildTopicsPrompt(e.cfg, commits)
	raw, err := e.client.CompleteJSON(ctx, prompt, llm.Options{
		Model:       e.cfg.TopicModel,
		Temperature: 0.5,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, fmt.Errorf("topic extraction failed: %w", err)
	}

	var payload struct {
		Topics []json.RawMessage `json:"topics"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("topics response has unexpected shape: %w", err)
	}
	if payload.Topics == nil {
		return nil, &MissingFieldError{Field: "topics"}
	}

	topics := normalizeTopics(payload.Topics)
	if len(topics) == 0 {
		return nil, ErrNoValidTopics
	}

	return &models.TopicExtractionResult{
		Topics: topics,
		Metadata: models.TopicMetadata{
			TotalCommits:   len(commits),
			ExtractedCount: len(topics),
			ExtractedAt:    time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
