/**
 * @description
 * This file defines the core domain models for promotions. It includes the
 * Promotion struct that maps to the database table, the status enum driving
 * the lifecycle state machine, and the request payloads accepted by the API.
 */
package domain

import "time"

// PromotionStatus represents the lifecycle state of a promotion.
// Transitions are one-way only: draft -> active -> ended.
type PromotionStatus string

const (
	PromotionStatusDraft  PromotionStatus = "draft"
	PromotionStatusActive PromotionStatus = "active"
	PromotionStatusEnded  PromotionStatus = "ended"
)

// ParsePromotionStatus converts a raw string into a PromotionStatus.
func ParsePromotionStatus(raw string) (PromotionStatus, bool) {
	switch PromotionStatus(raw) {
	case PromotionStatusDraft, PromotionStatusActive, PromotionStatusEnded:
		return PromotionStatus(raw), true
	}
	return "", false
}

// Promotion represents a promotional campaign in the database.
type Promotion struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      PromotionStatus `json:"status"`
	StartAt     time.Time       `json:"start_at"`
	EndAt       time.Time       `json:"end_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CreatedBy   int64           `json:"created_by"`
}

// CreatePromotionRequest is the payload for creating a promotion.
// New promotions always start in draft status.
type CreatePromotionRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
}

// UpdatePromotionRequest is the payload for a partial promotion update.
// Pointer fields distinguish "not supplied" (nil) from "supplied"; only
// supplied fields are validated against the status-based editable set.
type UpdatePromotionRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

// FieldNames returns the names of the fields present in the patch.
func (r UpdatePromotionRequest) FieldNames() []string {
	var fields []string
	if r.Name != nil {
		fields = append(fields, "name")
	}
	if r.Description != nil {
		fields = append(fields, "description")
	}
	if r.StartAt != nil {
		fields = append(fields, "start_at")
	}
	if r.EndAt != nil {
		fields = append(fields, "end_at")
	}
	return fields
}

// ChangePromotionStatusRequest is the payload for a status transition.
type ChangePromotionStatusRequest struct {
	Status string `json:"status"`
}

// PromotionList is the paginated response for listing promotions.
type PromotionList struct {
	Items []Promotion `json:"items"`
	Total int         `json:"total"`
}

// PromotionFilter narrows a promotion listing.
type PromotionFilter struct {
	Status *PromotionStatus
	Limit  int
	Offset int
}
