package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is the alternative provider behind the same Client
// surface. Provider-specific finish reasons are mapped onto the shared
// error taxonomy.
type GeminiClient struct {
	client    *genai.Client
	rateLimit chan struct{}
}

func NewGeminiClient(ctx context.Context, apiKey string, maxConcurrent int) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &GeminiClient{
		client:    client,
		rateLimit: make(chan struct{}, maxConcurrent),
	}, nil
}

func (c *GeminiClient) Close() error { return c.client.Close() }

func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	select {
	case c.rateLimit <- struct{}{}:
		defer func() { <-c.rateLimit }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = GenerationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := c.client.GenerativeModel(opts.Model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{Timeout: timeout}
		}
		return "", &ProviderError{StatusCode: 0, Body: err.Error()}
	}
	if len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{MaxTokens: opts.MaxTokens}
	}

	candidate := resp.Candidates[0]
	text := extractText(candidate)
	if text == "" {
		return "", &EmptyResponseError{
			Truncated: candidate.FinishReason == genai.FinishReasonMaxTokens,
			MaxTokens: opts.MaxTokens,
		}
	}
	return text, nil
}

func (c *GeminiClient) CompleteJSON(ctx context.Context, prompt string, opts Options) (json.RawMessage, error) {
	text, err := c.Complete(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(text)
}

func extractText(candidate *genai.Candidate) string {
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
