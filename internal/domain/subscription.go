/**
 * @description
 * This file defines the core domain models for subscriptions. A subscription
 * links a user to a promotion; the pair is unique for all time and the record
 * is soft-deleted via the is_active flag rather than removed.
 */
package domain

import "time"

// Subscription represents a user's subscription to a promotion.
type Subscription struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	PromotionID int64             `json:"promotion_id"`
	IsActive    bool              `json:"is_active"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CreateSubscriptionRequest is the payload for creating a subscription.
type CreateSubscriptionRequest struct {
	UserID      int64             `json:"user_id"`
	PromotionID int64             `json:"promotion_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SubscriptionList is the paginated response for listing subscriptions.
type SubscriptionList struct {
	Items []Subscription `json:"items"`
	Total int            `json:"total"`
}

// SubscriptionFilter narrows a subscription listing. Exactly one of UserID or
// PromotionID must be set; the engine rejects the filter otherwise.
type SubscriptionFilter struct {
	UserID      *int64
	PromotionID *int64
	IsActive    *bool
	Limit       int
	Offset      int
}
