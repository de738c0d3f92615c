package services

import (
	"context"
	"encoding/json"

	"committutor-backend/internal/llm"
	"committutor-backend/internal/models"
)

// fakeClient replays a canned model response and records the call.
type fakeClient struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   llm.Options
}

func (f *fakeClient) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) CompleteJSON(ctx context.Context, prompt string, opts llm.Options) (json.RawMessage, error) {
	text, err := f.Complete(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return llm.DecodeJSON(text)
}

func testCommits() []models.CommitDetail {
	return []models.CommitDetail{
		{
			SHA:          "a1b2c3d4e5f6",
			Message:      "Fix race in cache writer",
			Author:       "dev",
			Date:         "2026-08-30 14:02",
			FilesChanged: 1,
			Additions:    4,
			Deletions:    1,
			Files: []models.FileDiff{
				{
					Filename:  "internal/cache/cache.go",
					Status:    "modified",
					Additions: 4,
					Deletions: 1,
					Patch:     "@@ -10,6 +10,9 @@\n+mu.Lock()\n+defer mu.Unlock()\n cache[key] = value",
				},
			},
		},
		{
			SHA:          "f6e5d4c3b2a1",
			Message:      "Add request timeout to http client",
			Author:       "dev",
			Date:         "2026-08-31 09:15",
			FilesChanged: 1,
			Additions:    2,
			Deletions:    0,
			Files: []models.FileDiff{
				{
					Filename:  "internal/httpx/client.go",
					Status:    "modified",
					Additions: 2,
					Deletions: 0,
					Patch:     "@@ -5,2 +5,4 @@\n+client.Timeout = 10 * time.Second",
				},
			},
		},
	}
}
