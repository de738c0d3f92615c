package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"committutor-backend/internal/middleware"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/services"
)

// QuizHandler manages saved quizzes: persistence, grading, attempts.
type QuizHandler struct {
	quizRepo     *repository.QuizRepo
	passingScore float64
}

func NewQuizHandler(quizRepo *repository.QuizRepo, passingScore float64) *QuizHandler {
	if passingScore <= 0 {
		passingScore = 60
	}
	return &QuizHandler{quizRepo: quizRepo, passingScore: passingScore}
}

func (h *QuizHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Title == "" || len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title and questions are required", r))
		return
	}

	questionsJSON, err := json.Marshal(req.Questions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid questions payload", r))
		return
	}
	shasJSON, _ := json.Marshal(req.CommitSHAs)

	quiz := &models.Quiz{
		UserID:         middleware.GetUserID(r.Context()),
		Title:          req.Title,
		Description:    req.Description,
		CommitSHAs:     shasJSON,
		RepositoryInfo: req.RepositoryInfo,
		SelectedTopic:  req.SelectedTopic,
		QuestionCount:  len(req.Questions),
		QuestionsJSON:  questionsJSON,
	}
	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save quiz", r))
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	quizzes, err := h.quizRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch quizzes", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": quizzes,
		"total":   len(quizzes),
	})
}

// ownedQuiz loads the quiz and enforces ownership in one place.
func (h *QuizHandler) ownedQuiz(w http.ResponseWriter, r *http.Request) (*models.Quiz, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return nil, false
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return nil, false
	}
	if quiz.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return quiz, true
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}

	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.QuestionsJSON, &questions); err != nil || len(questions) == 0 {
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_NOT_READY", "Quiz has no questions to grade", r))
		return
	}

	score, results := gradeQuiz(questions, req.UserAnswers)
	correct := 0
	for _, res := range results {
		if res.IsCorrect {
			correct++
		}
	}
	wrong := len(questions) - correct

	if err := h.quizRepo.RecordSubmission(r.Context(), quiz.ID, score, correct, wrong, req.DurationSeconds); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record submission", r))
		return
	}

	answersJSON, _ := json.Marshal(req.UserAnswers)
	attempt := &models.QuizAttempt{
		QuizID:          quiz.ID,
		UserID:          quiz.UserID,
		Score:           score,
		CorrectAnswers:  correct,
		WrongAnswers:    wrong,
		AnswersJSON:     answersJSON,
		DurationSeconds: req.DurationSeconds,
	}
	if err := h.quizRepo.CreateAttempt(r.Context(), attempt); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record attempt", r))
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitQuizResponse{
		QuizID:         quiz.ID,
		Score:          score,
		CorrectAnswers: correct,
		WrongAnswers:   wrong,
		IsPassed:       score >= h.passingScore,
		Feedback:       feedbackFor(score, h.passingScore),
		Results:        results,
	})
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}
	if err := h.quizRepo.Delete(r.Context(), quiz.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete quiz", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}

// gradeQuiz scores answers with the same string-coercion tolerance used
// when partitioning questions for review documents.
func gradeQuiz(questions []models.QuizQuestion, userAnswers map[string]any) (float64, []models.AnswerResult) {
	results := make([]models.AnswerResult, 0, len(questions))
	correct := 0
	for _, q := range questions {
		answer := userAnswers[q.ID]
		isCorrect := services.AnswersMatch(answer, q.CorrectAnswer)
		if isCorrect {
			correct++
		}
		results = append(results, models.AnswerResult{
			QuestionID:    q.ID,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		})
	}

	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}
	return score, results
}

func feedbackFor(score, passingScore float64) string {
	switch {
	case score >= 90:
		return "훌륭합니다! 완벽하게 이해하셨네요! 🎉"
	case score >= 70:
		return "잘하셨습니다! 대부분의 개념을 잘 이해하고 계세요. 👍"
	case score >= passingScore:
		return "합격입니다! 조금 더 학습하면 더 좋을 것 같아요. 💪"
	default:
		return "아쉽네요. 다시 한번 복습해보시는 것을 추천드립니다. 📚"
	}
}
