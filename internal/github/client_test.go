package github

import (
	"errors"
	"net/http"
	"testing"

	gh "github.com/google/go-github/v73/github"
)

func TestWrapAPIError(t *testing.T) {
	base := errors.New("boom")

	err := wrapAPIError("owner/repo", &gh.Response{Response: &http.Response{StatusCode: http.StatusNotFound}}, base)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}

	err = wrapAPIError("owner/repo", &gh.Response{Response: &http.Response{StatusCode: http.StatusBadGateway}}, base)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", upstream.StatusCode)
	}
	if !errors.Is(err, base) {
		t.Error("upstream error should unwrap to the original")
	}

	if err := wrapAPIError("owner/repo", nil, nil); err != nil {
		t.Errorf("nil error should stay nil, got %v", err)
	}
}
