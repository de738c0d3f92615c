package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id"`
	GitHubID        int64      `json:"github_id"`
	Username        string     `json:"username"`
	Email           *string    `json:"email"`
	AvatarURL       *string    `json:"avatar_url"`
	NeedsOnboarding bool       `json:"needs_onboarding"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

type LoginURLResponse struct {
	URL string `json:"url"`
}

type CallbackRequest struct {
	Code string `json:"code"`
}

// AuthResponse is returned after the OAuth code exchange. Token is a JWT
// that carries the GitHub access token as a claim, so API calls made with
// it can reach the GitHub API on the user's behalf.
type AuthResponse struct {
	Token           string    `json:"token"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Email           *string   `json:"email"`
	AvatarURL       *string   `json:"avatar_url"`
	NeedsOnboarding bool      `json:"needs_onboarding"`
}
