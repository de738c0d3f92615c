package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"committutor-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, job *models.Job) error {
	job.ID = uuid.New()
	job.Status = "pending"
	if job.ConfigJSON == nil {
		job.ConfigJSON = json.RawMessage("{}")
	}

	query := `INSERT INTO jobs (id, user_id, type, status, reference_id, config_json)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		job.ID, job.UserID, job.Type, job.Status, job.ReferenceID, job.ConfigJSON,
	).Scan(&job.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job := &models.Job{}
	query := `SELECT id, user_id, type, status, reference_id, config_json, result_json, error_message, created_at, completed_at
		FROM jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.Type, &job.Status, &job.ReferenceID,
		&job.ConfigJSON, &job.ResultJSON, &job.ErrorMessage, &job.CreatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE jobs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *JobRepo) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE jobs SET status = 'completed', result_json = $1, completed_at = $2 WHERE id = $3",
		result, time.Now(), id,
	)
	return err
}

func (r *JobRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE jobs SET status = 'failed', error_message = $1, completed_at = $2 WHERE id = $3",
		message, time.Now(), id,
	)
	return err
}
