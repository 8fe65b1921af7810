/**
 * @description
 * This file contains the HTTP handlers for the promotion endpoints. Handlers
 * parse and shape-check incoming requests, call the promotion engine, and
 * write the response; every business decision lives in the engine.
 */
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/promopulse/promotion-service/internal/app"
	"github.com/promopulse/promotion-service/internal/domain"
)

// TODO: Replace with the authenticated user once an identity provider is wired in.
const mockUserID int64 = 1

// PromotionHandler holds the promotion engine the handlers delegate to.
type PromotionHandler struct {
	service *app.PromotionService
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(service *app.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

// parsePageParams reads limit/offset query parameters, leaving zero values for
// the engine to default.
func parsePageParams(r *http.Request) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, domain.NewValidationError("limit must be an integer")
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, domain.NewValidationError("offset must be an integer")
		}
	}
	return limit, offset, nil
}

// handleCreatePromotion handles POST /promotions.
func (h *PromotionHandler) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	promotion, err := h.service.Create(r.Context(), req, mockUserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, promotion)
}

// handleGetPromotion handles GET /promotions/{id}.
func (h *PromotionHandler) handleGetPromotion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	promotion, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, promotion)
}

// handleListPromotions handles GET /promotions with optional status filter
// and pagination.
func (h *PromotionHandler) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	var filter domain.PromotionFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParsePromotionStatus(raw)
		if !ok {
			respondWithError(w, domain.NewValidationError(
				"status must be one of draft, active, ended, got %q", raw))
			return
		}
		filter.Status = &status
	}

	limit, offset, err := parsePageParams(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// handleUpdatePromotion handles PATCH /promotions/{id}.
func (h *PromotionHandler) handleUpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var patch domain.UpdatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	promotion, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, promotion)
}

// handleChangePromotionStatus handles POST /promotions/{id}/status.
func (h *PromotionHandler) handleChangePromotionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req domain.ChangePromotionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}
	target, ok := domain.ParsePromotionStatus(req.Status)
	if !ok {
		respondWithError(w, domain.NewValidationError(
			"status must be one of draft, active, ended, got %q", req.Status))
		return
	}

	promotion, err := h.service.ChangeStatus(r.Context(), id, target)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, promotion)
}
