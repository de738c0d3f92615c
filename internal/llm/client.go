package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// GenerationTimeout is the default per-call deadline when Options
	// does not set one.
	GenerationTimeout = 60 * time.Second

	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Options select the model and sampling parameters for one call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client is the provider-agnostic surface the generation services use.
type Client interface {
	// Complete returns the raw text of the first choice.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// CompleteJSON completes and decodes the response as JSON, with a
	// single repair attempt on strict-decode failure.
	CompleteJSON(ctx context.Context, prompt string, opts Options) (json.RawMessage, error)
}

// DecodeJSON strips markdown fences and decodes model text as JSON,
// making one repair attempt when strict decoding fails. Retrying the
// model is never done here; a still-broken payload surfaces as
// MalformedResponseError with both texts attached.
func DecodeJSON(text string) (json.RawMessage, error) {
	cleaned := StripFences(text)
	var probe any
	err := json.Unmarshal([]byte(cleaned), &probe)
	if err == nil {
		return json.RawMessage(cleaned), nil
	}
	repaired := Repair(cleaned)
	if json.Valid([]byte(repaired)) {
		log.Printf("[LLM] repaired malformed JSON response (%d -> %d bytes)", len(cleaned), len(repaired))
		return json.RawMessage(repaired), nil
	}
	return nil, &MalformedResponseError{Original: text, Repaired: repaired, Err: err}
}

// OpenRouterClient speaks the OpenAI chat-completions wire format.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	rateLimit  chan struct{}
}

func NewOpenRouterClient(apiKey, baseURL string, maxConcurrent int) *OpenRouterClient {
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &OpenRouterClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		rateLimit:  make(chan struct{}, maxConcurrent),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	// Acquire a concurrency slot
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

	body, err := json.Marshal(chatRequest{
		Model:       opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Timeout: timeout}
		}
		return "", fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", &EmptyResponseError{MaxTokens: opts.MaxTokens}
	}

	choice := parsed.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", &EmptyResponseError{
			Truncated: choice.FinishReason == "length",
			MaxTokens: opts.MaxTokens,
		}
	}
	if choice.FinishReason == "length" {
		log.Printf("[LLM] response hit max_tokens=%d, output may be cut off", opts.MaxTokens)
	}
	return content, nil
}

func (c *OpenRouterClient) CompleteJSON(ctx context.Context, prompt string, opts Options) (json.RawMessage, error) {
	text, err := c.Complete(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(text)
}
