package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"committutor-backend/internal/middleware"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/services"
)

// ReviewHandler manages generated study documents.
type ReviewHandler struct {
	reviewGen  *services.ReviewGenerator
	reviewRepo *repository.ReviewRepo
	quizRepo   *repository.QuizRepo
}

func NewReviewHandler(reviewGen *services.ReviewGenerator, reviewRepo *repository.ReviewRepo, quizRepo *repository.QuizRepo) *ReviewHandler {
	return &ReviewHandler{reviewGen: reviewGen, reviewRepo: reviewRepo, quizRepo: quizRepo}
}

// Generate builds a review document from the quiz's latest attempt.
// Generation is idempotent per quiz: an existing document is returned
// instead of regenerated.
func (h *ReviewHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "quiz_id is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	quiz, err := h.quizRepo.GetByID(r.Context(), req.QuizID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}
	if quiz.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}
	if !quiz.IsCompleted {
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_NOT_COMPLETED", "Submit the quiz before generating a review", r))
		return
	}

	if existing, err := h.reviewRepo.GetByQuizID(r.Context(), quiz.ID); err == nil {
		writeJSON(w, http.StatusOK, existing)
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check existing review", r))
		return
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.QuestionsJSON, &questions); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Stored questions are unreadable", r))
		return
	}

	attempt, err := h.quizRepo.LatestAttempt(r.Context(), quiz.ID)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_NOT_COMPLETED", "No attempt found for this quiz", r))
		return
	}
	var userAnswers map[string]any
	json.Unmarshal(attempt.AnswersJSON, &userAnswers)

	topic := ""
	if quiz.SelectedTopic != nil {
		topic = *quiz.SelectedTopic
	}
	doc, err := h.reviewGen.GenerateReviewDocument(r.Context(), quiz.Title, topic, questions, userAnswers, attempt.Score)
	if err != nil {
		handleGenerationError(w, r, err)
		return
	}

	sectionsJSON, _ := json.Marshal(doc.Sections)
	conceptsJSON, _ := json.Marshal(doc.RelatedConcepts)
	readingJSON, _ := json.Marshal(doc.FurtherReading)
	review := &models.Review{
		UserID:          userID,
		QuizID:          quiz.ID,
		Title:           doc.Title,
		Summary:         doc.Summary,
		SectionsJSON:    sectionsJSON,
		RelatedConcepts: conceptsJSON,
		FurtherReading:  readingJSON,
	}
	if err := h.reviewRepo.Create(r.Context(), review); err != nil {
		// A concurrent generate for the same quiz can win the insert
		// race; hand back its row instead of failing.
		if repository.IsUniqueViolation(err) {
			if existing, getErr := h.reviewRepo.GetByQuizID(r.Context(), quiz.ID); getErr == nil {
				writeJSON(w, http.StatusOK, existing)
				return
			}
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save review", r))
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reviews, err := h.reviewRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch reviews", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   len(reviews),
	})
}

func (h *ReviewHandler) ownedReview(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid review ID", r))
		return nil, false
	}

	review, err := h.reviewRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Review not found", r))
		return nil, false
	}
	if review.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return review, true
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, ok := h.ownedReview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	review, ok := h.ownedReview(w, r)
	if !ok {
		return
	}
	if err := h.reviewRepo.Delete(r.Context(), review.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete review", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}
