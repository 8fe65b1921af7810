/**
 * @description
 * This file contains the subscription validation engine. It owns creation and
 * deactivation of subscriptions and reads (never mutates) promotion and user
 * state to enforce its rules: the user must exist, the promotion must be
 * active, and the (user, promotion) pair is unique for all time. The database
 * uniqueness constraint backs the duplicate check against concurrent creates.
 */
package app

import (
	"context"
	"errors"
	"log"

	"github.com/promopulse/promotion-service/internal/domain"
)

// SubscriptionRepository defines the persistence operations the engine needs.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error)
	GetSubscriptionByPair(ctx context.Context, userID, promotionID int64) (*domain.Subscription, error)
	ListSubscriptions(ctx context.Context, filter domain.SubscriptionFilter) ([]domain.Subscription, int, error)
	SetSubscriptionInactive(ctx context.Context, id int64) (*domain.Subscription, error)
}

// PromotionReader is the read-only view of promotions the engine checks
// against. It must reflect committed state, so it is wired to the plain
// repository, never to a cache.
type PromotionReader interface {
	GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error)
}

// UserReader checks user existence without exposing user data.
type UserReader interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// SubscriptionService provides the business logic for subscription management.
type SubscriptionService struct {
	repo       SubscriptionRepository
	promotions PromotionReader
	users      UserReader
	publisher  EventPublisher
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo SubscriptionRepository, promotions PromotionReader, users UserReader, publisher EventPublisher) *SubscriptionService {
	return &SubscriptionService{repo: repo, promotions: promotions, users: users, publisher: publisher}
}

// Create validates and persists a new subscription. Checks run in order:
// user exists, promotion exists and is active, no subscription row exists for
// the pair (active or not).
func (s *SubscriptionService) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	if req.UserID <= 0 {
		return nil, domain.NewValidationError("user_id must be positive, got %d", req.UserID)
	}
	if req.PromotionID <= 0 {
		return nil, domain.NewValidationError("promotion_id must be positive, got %d", req.PromotionID)
	}

	exists, err := s.users.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("user %d not found", req.UserID)
	}

	promotion, err := s.promotions.GetPromotion(ctx, req.PromotionID)
	if err != nil {
		return nil, err
	}
	if promotion.Status != domain.PromotionStatusActive {
		return nil, domain.NewBusinessRuleError(
			"cannot subscribe to promotion %d with status %s, promotion must be active",
			req.PromotionID, promotion.Status)
	}

	// A deactivated subscription still blocks re-subscription; the pair is
	// unique for all time.
	existing, err := s.repo.GetSubscriptionByPair(ctx, req.UserID, req.PromotionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewConflictError(
			"user %d is already subscribed to promotion %d", req.UserID, req.PromotionID)
	}

	log.Printf("level=info component=subscriptions msg=\"creating subscription\" user_id=%d promotion_id=%d",
		req.UserID, req.PromotionID)

	// A concurrent create for the same pair loses at the unique constraint
	// and comes back from the store as a conflict.
	created, err := s.repo.CreateSubscription(ctx, &domain.Subscription{
		UserID:      req.UserID,
		PromotionID: req.PromotionID,
		IsActive:    true,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, EventSubscriptionCreated, SubscriptionEventPayload{
		SubscriptionID: created.ID,
		UserID:         created.UserID,
		PromotionID:    created.PromotionID,
		IsActive:       created.IsActive,
	})
	return created, nil
}

// Get retrieves a subscription by ID.
func (s *SubscriptionService) Get(ctx context.Context, id int64) (*domain.Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

// List returns a page of subscriptions. Exactly one of UserID or PromotionID
// must be supplied; this is checked before any storage access.
func (s *SubscriptionService) List(ctx context.Context, filter domain.SubscriptionFilter) (*domain.SubscriptionList, error) {
	if filter.UserID == nil && filter.PromotionID == nil {
		return nil, domain.NewValidationError("must provide either user_id or promotion_id")
	}
	if filter.UserID != nil && filter.PromotionID != nil {
		return nil, domain.NewValidationError("cannot filter by both user_id and promotion_id")
	}
	if err := normalizePage(&filter.Limit, &filter.Offset); err != nil {
		return nil, err
	}

	subscriptions, total, err := s.repo.ListSubscriptions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if subscriptions == nil {
		subscriptions = []domain.Subscription{}
	}
	return &domain.SubscriptionList{Items: subscriptions, Total: total}, nil
}

// Deactivate soft-deletes a subscription. The transition is one-way; there is
// no reactivate operation, and deactivating an inactive subscription is a
// business-rule violation, not a silent success.
func (s *SubscriptionService) Deactivate(ctx context.Context, id int64) (*domain.Subscription, error) {
	subscription, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subscription.IsActive {
		return nil, domain.NewBusinessRuleError("subscription %d is already inactive", id)
	}

	log.Printf("level=info component=subscriptions msg=\"deactivating subscription\" subscription_id=%d", id)

	updated, err := s.repo.SetSubscriptionInactive(ctx, id)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, EventSubscriptionDeactivated, SubscriptionEventPayload{
		SubscriptionID: updated.ID,
		UserID:         updated.UserID,
		PromotionID:    updated.PromotionID,
		IsActive:       updated.IsActive,
	})
	return updated, nil
}
