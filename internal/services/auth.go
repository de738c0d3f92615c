package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"committutor-backend/internal/github"
	"committutor-backend/internal/middleware"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
)

// AuthService handles GitHub OAuth sign-in. There are no passwords;
// identity is the GitHub account.
type AuthService struct {
	userRepo *repository.UserRepo
	oauth    *oauth2.Config
	jwt      *middleware.JWTAuth
}

func NewAuthService(userRepo *repository.UserRepo, jwtAuth *middleware.JWTAuth, clientID, clientSecret, redirectURI string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwt:      jwtAuth,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"repo", "read:user", "user:email"},
			Endpoint:     oauthgithub.Endpoint,
		},
	}
}

// LoginURL builds the GitHub authorization URL the frontend redirects to.
func (s *AuthService) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// HandleCallback exchanges the OAuth code, upserts the user, and issues
// a JWT carrying the GitHub access token.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange failed: %w", err)
	}

	ghUser, err := github.NewClient(ctx, token.AccessToken).AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github profile: %w", err)
	}

	user, err := s.userRepo.UpsertByGitHubID(ctx, ghUser.GitHubID, ghUser.Username, ghUser.Email, ghUser.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	jwtToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.AuthResponse{
		Token:           jwtToken,
		UserID:          user.ID,
		Username:        user.Username,
		Email:           user.Email,
		AvatarURL:       user.AvatarURL,
		NeedsOnboarding: user.NeedsOnboarding,
	}, nil
}
