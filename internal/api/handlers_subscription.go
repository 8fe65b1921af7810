/**
 * @description
 * This file contains the HTTP handlers for the subscription endpoints. The
 * listing handler parses the mutually exclusive user_id/promotion_id filters;
 * enforcement of that exclusivity belongs to the engine and happens before
 * storage is touched.
 */
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/promopulse/promotion-service/internal/app"
	"github.com/promopulse/promotion-service/internal/domain"
)

// SubscriptionHandler holds the subscription engine the handlers delegate to.
type SubscriptionHandler struct {
	service *app.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service *app.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// handleCreateSubscription handles POST /subscriptions.
func (h *SubscriptionHandler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	subscription, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, subscription)
}

// handleListSubscriptions handles GET /subscriptions.
func (h *SubscriptionHandler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	var filter domain.SubscriptionFilter
	query := r.URL.Query()

	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			respondWithError(w, domain.NewValidationError("user_id must be a positive integer"))
			return
		}
		filter.UserID = &userID
	}
	if raw := query.Get("promotion_id"); raw != "" {
		promotionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || promotionID <= 0 {
			respondWithError(w, domain.NewValidationError("promotion_id must be a positive integer"))
			return
		}
		filter.PromotionID = &promotionID
	}
	if raw := query.Get("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, domain.NewValidationError("is_active must be a boolean"))
			return
		}
		filter.IsActive = &isActive
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

// handleDeactivateSubscription handles PATCH /subscriptions/{id}/deactivate.
func (h *SubscriptionHandler) handleDeactivateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	subscription, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, subscription)
}
