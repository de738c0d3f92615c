package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"committutor-backend/internal/github"
	"committutor-backend/internal/llm"
	"committutor-backend/internal/middleware"
	"committutor-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": r.Header.Get("X-Request-ID"),
		},
	}
}

// githubClient builds a per-request client from the token the auth
// middleware put on the context.
func githubClient(r *http.Request) (*github.Client, bool) {
	token := middleware.GetGitHubToken(r.Context())
	if token == "" {
		return nil, false
	}
	return github.NewClient(r.Context(), token), true
}

// handleGenerationError maps the model and GitHub error taxonomy onto
// HTTP statuses. The underlying message always reaches the client; a
// failed generation must never look like an empty success.
func handleGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound  *github.NotFoundError
		upstream  *github.UpstreamError
		provider  *llm.ProviderError
		timeout   *llm.TimeoutError
		empty     *llm.EmptyResponseError
		malformed *llm.MalformedResponseError
		missing   *services.MissingFieldError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", err.Error(), r))
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, errorResp("GITHUB_ERROR", err.Error(), r))
	case errors.As(err, &timeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResp("GENERATION_TIMEOUT", err.Error(), r))
	case errors.As(err, &provider), errors.As(err, &empty), errors.As(err, &malformed), errors.As(err, &missing),
		errors.Is(err, services.ErrNoValidQuestions), errors.Is(err, services.ErrNoValidTopics), errors.Is(err, services.ErrNoValidSections):
		writeJSON(w, http.StatusBadGateway, errorResp("GENERATION_FAILED", err.Error(), r))
	default:
		log.Printf("[Handler] unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Something went wrong", r))
	}
}
