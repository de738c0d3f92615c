package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"committutor-backend/internal/models"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Create(ctx context.Context, review *models.Review) error {
	review.ID = uuid.New()
	query := `INSERT INTO reviews (id, user_id, quiz_id, title, summary, sections_json, related_concepts, further_reading)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		review.ID, review.UserID, review.QuizID, review.Title, review.Summary,
		review.SectionsJSON, review.RelatedConcepts, review.FurtherReading,
	).Scan(&review.CreatedAt)
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review := &models.Review{}
	query := `SELECT r.id, r.user_id, r.quiz_id, r.title, r.summary, r.sections_json, r.related_concepts,
		r.further_reading, r.created_at, r.updated_at, q.title, q.score
		FROM reviews r JOIN quizzes q ON q.id = r.quiz_id WHERE r.id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID, &review.UserID, &review.QuizID, &review.Title, &review.Summary, &review.SectionsJSON,
		&review.RelatedConcepts, &review.FurtherReading, &review.CreatedAt, &review.UpdatedAt,
		&review.QuizTitle, &review.QuizScore,
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// GetByQuizID backs the one-review-per-quiz idempotency check.
func (r *ReviewRepo) GetByQuizID(ctx context.Context, quizID uuid.UUID) (*models.Review, error) {
	review := &models.Review{}
	query := `SELECT id, user_id, quiz_id, title, summary, sections_json, related_concepts, further_reading, created_at, updated_at
		FROM reviews WHERE quiz_id = $1`

	err := r.pool.QueryRow(ctx, query, quizID).Scan(
		&review.ID, &review.UserID, &review.QuizID, &review.Title, &review.Summary, &review.SectionsJSON,
		&review.RelatedConcepts, &review.FurtherReading, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Review, error) {
	query := `SELECT r.id, r.user_id, r.quiz_id, r.title, r.summary, r.sections_json, r.related_concepts,
		r.further_reading, r.created_at, r.updated_at, q.title, q.score
		FROM reviews r JOIN quizzes q ON q.id = r.quiz_id
		WHERE r.user_id = $1 ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review := &models.Review{}
		err := rows.Scan(
			&review.ID, &review.UserID, &review.QuizID, &review.Title, &review.Summary, &review.SectionsJSON,
			&review.RelatedConcepts, &review.FurtherReading, &review.CreatedAt, &review.UpdatedAt,
			&review.QuizTitle, &review.QuizScore,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	return err
}
