/**
 * @description
 * This file contains the JSON response helpers shared by all handlers,
 * including the single place where domain errors are mapped onto HTTP status
 * codes: validation and business-rule failures become 422, missing entities
 * 404, uniqueness conflicts 409, and storage failures a generic 500.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/promopulse/promotion-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError translates a domain error into the HTTP contract.
func respondWithError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrBusinessRule):
		respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		// Storage and unclassified failures: log the cause, hide it from the client.
		log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
