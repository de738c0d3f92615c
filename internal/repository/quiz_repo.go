package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"committutor-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

const quizColumns = `id, user_id, title, description, commit_shas, repository_info, selected_topic,
	question_count, questions_json, is_completed, completed_at, score, correct_answers, wrong_answers,
	duration_seconds, created_at, updated_at`

func scanQuiz(row interface{ Scan(...any) error }) (*models.Quiz, error) {
	q := &models.Quiz{}
	err := row.Scan(
		&q.ID, &q.UserID, &q.Title, &q.Description, &q.CommitSHAs, &q.RepositoryInfo, &q.SelectedTopic,
		&q.QuestionCount, &q.QuestionsJSON, &q.IsCompleted, &q.CompletedAt, &q.Score, &q.CorrectAnswers,
		&q.WrongAnswers, &q.DurationSeconds, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	if q.CommitSHAs == nil {
		q.CommitSHAs = json.RawMessage("[]")
	}
	if q.RepositoryInfo == nil {
		q.RepositoryInfo = json.RawMessage("{}")
	}
	if q.QuestionsJSON == nil {
		q.QuestionsJSON = json.RawMessage("[]")
	}

	query := `INSERT INTO quizzes (id, user_id, title, description, commit_shas, repository_info, selected_topic, question_count, questions_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.Title, q.Description, q.CommitSHAs, q.RepositoryInfo, q.SelectedTopic, q.QuestionCount, q.QuestionsJSON,
	).Scan(&q.CreatedAt)
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

func (r *QuizRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*models.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepo) UpdateQuestions(ctx context.Context, id uuid.UUID, questions json.RawMessage, count int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE quizzes SET questions_json = $1, question_count = $2, updated_at = NOW() WHERE id = $3",
		questions, count, id,
	)
	return err
}

// RecordSubmission marks the quiz completed with its latest grading.
func (r *QuizRepo) RecordSubmission(ctx context.Context, id uuid.UUID, score float64, correct, wrong int, duration *int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET is_completed = TRUE, completed_at = $1, score = $2, correct_answers = $3,
		 wrong_answers = $4, duration_seconds = $5, updated_at = $1 WHERE id = $6`,
		time.Now(), score, correct, wrong, duration, id,
	)
	return err
}

func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	return err
}

// Quiz Attempts

func (r *QuizRepo) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()
	if a.AnswersJSON == nil {
		a.AnswersJSON = json.RawMessage("{}")
	}
	query := `INSERT INTO quiz_attempts (id, quiz_id, user_id, score, correct_answers, wrong_answers, answers_json, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.QuizID, a.UserID, a.Score, a.CorrectAnswers, a.WrongAnswers, a.AnswersJSON, a.DurationSeconds,
	).Scan(&a.CreatedAt)
}

// LatestAttempt returns the newest attempt for a quiz, or nil when the
// quiz has never been submitted.
func (r *QuizRepo) LatestAttempt(ctx context.Context, quizID uuid.UUID) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	query := `SELECT id, quiz_id, user_id, score, correct_answers, wrong_answers, answers_json, duration_seconds, created_at
		FROM quiz_attempts WHERE quiz_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, quizID).Scan(
		&a.ID, &a.QuizID, &a.UserID, &a.Score, &a.CorrectAnswers, &a.WrongAnswers, &a.AnswersJSON, &a.DurationSeconds, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
