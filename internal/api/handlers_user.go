/**
 * @description
 * This file contains the HTTP handlers for the user endpoints. Users are
 * created with their PII encrypted by the service layer and read back with
 * the email decrypted; the stored ciphertext never appears in a response.
 */
package api

import (
	"encoding/json"
	"net/http"

	"github.com/promopulse/promotion-service/internal/app"
	"github.com/promopulse/promotion-service/internal/domain"
)

// UserHandler holds the user service the handlers delegate to.
type UserHandler struct {
	service *app.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *app.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// handleCreateUser handles POST /users.
func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// handleGetUser handles GET /users/{id}.
func (h *UserHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
