package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"

	"committutor-backend/internal/middleware"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/services"
)

// LearningHandler owns the generation endpoints. Quiz, review and topic
// generation run synchronously; the combined session goes through the
// job queue because it is the heaviest call.
type LearningHandler struct {
	quizGen   *services.QuizGenerator
	analyzer  *services.CodeAnalyzer
	extractor *services.TopicExtractor
	quizRepo  *repository.QuizRepo
	jobRepo   *repository.JobRepo
	redis     *redis.Client
}

func NewLearningHandler(quizGen *services.QuizGenerator, analyzer *services.CodeAnalyzer, extractor *services.TopicExtractor, quizRepo *repository.QuizRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *LearningHandler {
	return &LearningHandler{
		quizGen:   quizGen,
		analyzer:  analyzer,
		extractor: extractor,
		quizRepo:  quizRepo,
		jobRepo:   jobRepo,
		redis:     redisClient,
	}
}

// fetchCommits resolves "owner/repo:sha" refs to full commit details.
func fetchCommits(r *http.Request, w http.ResponseWriter, shas []string) ([]models.CommitDetail, bool) {
	if len(shas) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "At least one commit is required", r))
		return nil, false
	}

	client, ok := githubClient(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return nil, false
	}

	refs := make([]models.CommitRef, 0, len(shas))
	for _, s := range shas {
		ref, err := models.ParseCommitRef(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
			return nil, false
		}
		refs = append(refs, ref)
	}

	commits, err := client.FetchCommitDetails(r.Context(), refs)
	if err != nil {
		handleGenerationError(w, r, err)
		return nil, false
	}
	return commits, true
}

func (h *LearningHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	commits, ok := fetchCommits(r, w, req.CommitSHAs)
	if !ok {
		return
	}

	result, err := h.quizGen.GenerateQuiz(r.Context(), commits, req.QuestionCount, req.Difficulty, req.SelectedTopic)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LearningHandler) AnalyzeCommit(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	commits, ok := fetchCommits(r, w, []string{req.CommitSHA})
	if !ok {
		return
	}

	result, err := h.analyzer.AnalyzeCommit(r.Context(), commits[0], req.FocusAreas)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LearningHandler) ExtractTopics(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractTopicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	commits, ok := fetchCommits(r, w, req.CommitSHAs)
	if !ok {
		return
	}

	result, err := h.extractor.ExtractTopics(r.Context(), commits)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GenerateSession creates a quiz shell and queues the combined
// quiz-plus-review generation; progress streams over the websocket.
func (h *LearningHandler) GenerateSession(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if len(req.CommitSHAs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "At least one commit is required", r))
		return
	}
	for _, s := range req.CommitSHAs {
		if _, err := models.ParseCommitRef(s); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
			return
		}
	}

	githubToken := middleware.GetGitHubToken(r.Context())
	if githubToken == "" {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "No GitHub token in session", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	shasJSON, _ := json.Marshal(req.CommitSHAs)

	quiz := &models.Quiz{
		UserID:        userID,
		Title:         "Learning session",
		CommitSHAs:    shasJSON,
		QuestionCount: req.QuestionCount,
	}
	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	configJSON, _ := json.Marshal(models.SessionJobConfig{
		CommitSHAs:    req.CommitSHAs,
		QuestionCount: req.QuestionCount,
		Difficulty:    req.Difficulty,
	})
	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeLearningSession,
		ReferenceID: quiz.ID,
		ConfigJSON:  configJSON,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(models.QueuedJob{Job: *job, GitHubToken: githubToken})
	h.redis.LPush(r.Context(), "queue:"+models.JobTypeLearningSession, string(jobBytes))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"quiz_id": quiz.ID,
	})
}
