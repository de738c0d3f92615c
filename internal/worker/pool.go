package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"committutor-backend/internal/github"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/services"
)

// Pool consumes queued learning-session jobs. Each worker blocks on the
// queue, claims jobs with a redis lock so concurrent instances do not
// double-process, and streams progress to the user over pub/sub.
type Pool struct {
	redis       *redis.Client
	session     *services.LearningSessionService
	jobRepo     *repository.JobRepo
	quizRepo    *repository.QuizRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	session *services.LearningSessionService,
	jobRepo *repository.JobRepo,
	quizRepo *repository.QuizRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		session:     session,
		jobRepo:     jobRepo,
		quizRepo:    quizRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{"queue:" + models.JobTypeLearningSession}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var queued models.QueuedJob
		if err := json.Unmarshal([]byte(result[1]), &queued); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}
		job := queued.Job

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case models.JobTypeLearningSession:
			processErr = p.processSession(ctx, &job, queued.GitHubToken)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processSession(ctx context.Context, job *models.Job, githubToken string) error {
	var cfg models.SessionJobConfig
	if err := json.Unmarshal(job.ConfigJSON, &cfg); err != nil {
		return fmt.Errorf("failed to parse job config: %w", err)
	}
	if githubToken == "" {
		return fmt.Errorf("queued job carries no GitHub token")
	}

	refs := make([]models.CommitRef, 0, len(cfg.CommitSHAs))
	for _, s := range cfg.CommitSHAs {
		ref, err := models.ParseCommitRef(s)
		if err != nil {
			return fmt.Errorf("invalid commit ref in job config: %w", err)
		}
		refs = append(refs, ref)
	}

	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     1,
			StepName: "Fetching commits",
		},
	})

	ghClient := github.NewClient(ctx, githubToken)
	commits, err := ghClient.FetchCommitDetails(ctx, refs)
	if err != nil {
		return fmt.Errorf("failed to fetch commits: %w", err)
	}

	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     2,
			StepName: "Generating quiz and review",
		},
	})

	session, err := p.session.GenerateSession(ctx, commits, cfg.QuestionCount, cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("session generation failed: %w", err)
	}

	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     3,
			StepName: "Saving results",
		},
	})

	if session.Quiz != nil {
		questionsJSON, err := json.Marshal(session.Quiz.Questions)
		if err != nil {
			return fmt.Errorf("failed to encode questions: %w", err)
		}
		if err := p.quizRepo.UpdateQuestions(ctx, job.ReferenceID, questionsJSON, len(session.Quiz.Questions)); err != nil {
			return fmt.Errorf("failed to save questions: %w", err)
		}
	}

	resultJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session result: %w", err)
	}
	if err := p.jobRepo.Complete(ctx, job.ID, resultJSON); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: "quiz",
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	errMsg := err.Error()
	log.Printf("Job %s failed: %s", job.ID, errMsg)

	p.jobRepo.Fail(ctx, job.ID, errMsg)

	p.publishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:   job.ID,
			Message: errMsg,
		},
	})
}

func (p *Pool) publishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	channel := "user_updates:" + userID.String()
	if err := p.redis.Publish(ctx, channel, string(data)).Err(); err != nil {
		log.Printf("Failed to publish update for user %s: %v", userID, err)
	}
}
