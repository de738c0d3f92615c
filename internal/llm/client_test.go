package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenRouterClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewOpenRouterClient("test-key", srv.URL, 2)
}

func chatReply(content, finishReason string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": finishReason,
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestCompleteSendsWireFormat(t *testing.T) {
	var got chatRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(chatReply("hello", "stop")))
	})

	text, err := client.Complete(context.Background(), "say hello", Options{
		Model:       "test/model",
		Temperature: 0.4,
		MaxTokens:   8000,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want %q", text, "hello")
	}
	if got.Model != "test/model" || got.Temperature != 0.4 || got.MaxTokens != 8000 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "say hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteProviderError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	})

	_, err := client.Complete(context.Background(), "p", Options{Model: "m"})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", provErr.StatusCode)
	}
	if provErr.Body == "" {
		t.Error("provider error body should carry the response text")
	}
}

func TestCompleteEmptyTruncated(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("", "length")))
	})

	_, err := client.Complete(context.Background(), "p", Options{Model: "m", MaxTokens: 100})
	var emptyErr *EmptyResponseError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want EmptyResponseError", err)
	}
	if !emptyErr.Truncated {
		t.Error("finish_reason=length should set Truncated")
	}
	if emptyErr.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d, want 100", emptyErr.MaxTokens)
	}
}

func TestCompleteEmptyNotTruncated(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("   ", "stop")))
	})

	_, err := client.Complete(context.Background(), "p", Options{Model: "m"})
	var emptyErr *EmptyResponseError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want EmptyResponseError", err)
	}
	if emptyErr.Truncated {
		t.Error("finish_reason=stop should not set Truncated")
	}
}

func TestCompleteTimeout(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chatReply("late", "stop")))
	})

	_, err := client.Complete(context.Background(), "p", Options{Model: "m", Timeout: 20 * time.Millisecond})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
}

func TestCompleteJSONStripsFences(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("```json\n{\"questions\": []}\n```", "stop")))
	})

	raw, err := client.CompleteJSON(context.Background(), "p", Options{Model: "m"})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	var payload struct {
		Questions []any `json:"questions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestCompleteJSONRepairsTruncatedPayload(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply(`{"questions": [{"id": "q1", "question": "What chang`, "length")))
	})

	raw, err := client.CompleteJSON(context.Background(), "p", Options{Model: "m"})
	if err != nil {
		t.Fatalf("CompleteJSON should repair the payload, got %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("repaired payload is not valid JSON: %s", raw)
	}
}

func TestCompleteJSONMalformed(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("I am unable to produce JSON for this request.", "stop")))
	})

	_, err := client.CompleteJSON(context.Background(), "p", Options{Model: "m"})
	var malformedErr *MalformedResponseError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("err = %v, want MalformedResponseError", err)
	}
	if malformedErr.Original == "" || malformedErr.Repaired == "" {
		t.Error("malformed error should carry original and repaired text")
	}
}
