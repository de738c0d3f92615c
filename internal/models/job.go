package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const JobTypeLearningSession = "session-generation"

// Job statuses: pending -> processing -> completed | failed.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config,omitempty"`
	ResultJSON   json.RawMessage `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// SessionJobConfig is what the worker needs to run a session job without
// the originating request context.
type SessionJobConfig struct {
	CommitSHAs    []string `json:"commit_shas"`
	QuestionCount int      `json:"question_count"`
	Difficulty    string   `json:"difficulty"`
}

// QueuedJob is the envelope pushed on the redis queue. The GitHub token
// rides only here; it is never written to the jobs row and never leaves
// through the job API.
type QueuedJob struct {
	Job         Job    `json:"job"`
	GitHubToken string `json:"github_token"`
}

type GenerateSessionRequest struct {
	CommitSHAs    []string `json:"commitShas"`
	QuestionCount int      `json:"questionCount"`
	Difficulty    string   `json:"difficulty"`
}

// WebSocket envelope published over redis pub/sub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	JobID    uuid.UUID `json:"job_id"`
	Step     int       `json:"step"`
	StepName string    `json:"step_name"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	ResultID   uuid.UUID `json:"result_id"`
	ResultType string    `json:"result_type"`
}

type ErrorEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}
