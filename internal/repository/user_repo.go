package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"committutor-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, github_id, username, email, avatar_url, needs_onboarding, created_at, updated_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.GitHubID, &u.Username, &u.Email, &u.AvatarURL, &u.NeedsOnboarding, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertByGitHubID creates the user on first login and refreshes the
// profile fields on every later one.
func (r *UserRepo) UpsertByGitHubID(ctx context.Context, githubID int64, username string, email, avatarURL *string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, github_id, username, email, avatar_url, needs_onboarding, created_at, updated_at
		FROM users WHERE github_id = $1`

	err := r.pool.QueryRow(ctx, query, githubID).Scan(
		&u.ID, &u.GitHubID, &u.Username, &u.Email, &u.AvatarURL, &u.NeedsOnboarding, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		u = &models.User{ID: uuid.New(), GitHubID: githubID, Username: username, Email: email, AvatarURL: avatarURL, NeedsOnboarding: true}
		insert := `INSERT INTO users (id, github_id, username, email, avatar_url, needs_onboarding)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
		if err := r.pool.QueryRow(ctx, insert, u.ID, u.GitHubID, u.Username, u.Email, u.AvatarURL, u.NeedsOnboarding).Scan(&u.CreatedAt); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	update := `UPDATE users SET username = $1, email = COALESCE($2, email), avatar_url = COALESCE($3, avatar_url), updated_at = NOW()
		WHERE id = $4`
	if _, err := r.pool.Exec(ctx, update, username, email, avatarURL, u.ID); err != nil {
		return nil, err
	}
	u.Username = username
	if email != nil {
		u.Email = email
	}
	if avatarURL != nil {
		u.AvatarURL = avatarURL
	}
	return u, nil
}

func (r *UserRepo) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET needs_onboarding = FALSE, updated_at = NOW() WHERE id = $1", id)
	return err
}
