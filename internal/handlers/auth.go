package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"committutor-backend/internal/middleware"
	"committutor-backend/internal/models"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	userRepo    *repository.UserRepo
}

func NewAuthHandler(authService *services.AuthService, userRepo *repository.UserRepo) *AuthHandler {
	return &AuthHandler{authService: authService, userRepo: userRepo}
}

// LoginURL hands the frontend the GitHub authorization URL.
func (h *AuthHandler) LoginURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.LoginURLResponse{
		URL: h.authService.LoginURL(uuid.NewString()),
	})
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req models.CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing authorization code", r))
		return
	}

	resp, err := h.authService.HandleCallback(r.Context(), req.Code)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("AUTH_FAILED", "GitHub sign-in failed", r))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.userRepo.CompleteOnboarding(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update user", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Onboarding completed"})
}
