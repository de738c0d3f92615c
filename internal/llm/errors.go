package llm

import (
	"fmt"
	"time"
)

// ProviderError means the provider answered with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// TimeoutError means the request deadline elapsed before a response.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("model call timed out after %s", e.Timeout)
}

// EmptyResponseError means the provider answered 2xx but produced no
// usable text. Truncated is set when generation stopped on the token
// budget; such calls must not be retried with the same budget.
type EmptyResponseError struct {
	Truncated bool
	MaxTokens int
}

func (e *EmptyResponseError) Error() string {
	if e.Truncated {
		return fmt.Sprintf("model response truncated at max_tokens=%d with no usable text", e.MaxTokens)
	}
	return "model returned an empty response"
}

// MalformedResponseError means the text survived transport but could not
// be decoded as JSON even after one repair attempt. Both texts are kept
// for logging.
type MalformedResponseError struct {
	Original string
	Repaired string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON after repair: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
