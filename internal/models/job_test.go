package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestQueuedJobKeepsTokenOutOfJobPayload(t *testing.T) {
	configJSON, err := json.Marshal(SessionJobConfig{
		CommitSHAs:    []string{"owner/repo:abc1234"},
		QuestionCount: 5,
		Difficulty:    "medium",
	})
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}

	queued := QueuedJob{
		Job: Job{
			ID:          uuid.New(),
			UserID:      uuid.New(),
			Type:        JobTypeLearningSession,
			ReferenceID: uuid.New(),
			ConfigJSON:  configJSON,
		},
		GitHubToken: "gho_secret_token",
	}

	data, err := json.Marshal(queued)
	if err != nil {
		t.Fatalf("marshal queued job: %v", err)
	}
	var decoded QueuedJob
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal queued job: %v", err)
	}
	if decoded.GitHubToken != "gho_secret_token" {
		t.Error("token must survive the queue round-trip")
	}

	// The job row and API responses serialize Job alone; the token must
	// not appear anywhere in it.
	jobBody, err := json.Marshal(decoded.Job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	if strings.Contains(string(jobBody), "gho_secret_token") {
		t.Errorf("job payload leaks the GitHub token: %s", jobBody)
	}
}
