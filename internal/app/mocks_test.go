package app

import (
	"context"
	"sort"
	"time"

	"github.com/promopulse/promotion-service/internal/domain"
)

// fakePromotionRepo is an in-memory PromotionRepository mirroring the store's
// error contract, including the status guards on writes.
type fakePromotionRepo struct {
	promotions map[int64]domain.Promotion
	nextID     int64
}

func newFakePromotionRepo() *fakePromotionRepo {
	return &fakePromotionRepo{promotions: make(map[int64]domain.Promotion), nextID: 1}
}

func (f *fakePromotionRepo) CreatePromotion(_ context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	stored := *p
	stored.ID = f.nextID
	f.nextID++
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.promotions[stored.ID] = stored
	out := stored
	return &out, nil
}

func (f *fakePromotionRepo) GetPromotion(_ context.Context, id int64) (*domain.Promotion, error) {
	stored, ok := f.promotions[id]
	if !ok {
		return nil, domain.NewNotFoundError("promotion %d not found", id)
	}
	out := stored
	return &out, nil
}

func (f *fakePromotionRepo) ListPromotions(_ context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error) {
	var matched []domain.Promotion
	for _, p := range f.promotions {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakePromotionRepo) UpdatePromotionFields(_ context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error) {
	stored, ok := f.promotions[id]
	if !ok || stored.Status != current {
		return nil, domain.NewConflictError("promotion %d changed status concurrently, expected %s", id, current)
	}
	if patch.Name != nil {
		stored.Name = *patch.Name
	}
	if patch.Description != nil {
		stored.Description = *patch.Description
	}
	if patch.StartAt != nil {
		stored.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		stored.EndAt = *patch.EndAt
	}
	stored.UpdatedAt = time.Now()
	f.promotions[id] = stored
	out := stored
	return &out, nil
}

func (f *fakePromotionRepo) UpdatePromotionStatus(_ context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error) {
	stored, ok := f.promotions[id]
	if !ok || stored.Status != current {
		return nil, domain.NewConflictError("promotion %d changed status concurrently, expected %s", id, current)
	}
	stored.Status = target
	stored.UpdatedAt = time.Now()
	f.promotions[id] = stored
	out := stored
	return &out, nil
}

// fakeSubscriptionRepo is an in-memory SubscriptionRepository that enforces
// the (user_id, promotion_id) uniqueness constraint like the database does.
type fakeSubscriptionRepo struct {
	subscriptions map[int64]domain.Subscription
	nextID        int64
	listCalls     int
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[int64]domain.Subscription), nextID: 1}
}

func (f *fakeSubscriptionRepo) CreateSubscription(_ context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	for _, existing := range f.subscriptions {
		if existing.UserID == s.UserID && existing.PromotionID == s.PromotionID {
			return nil, domain.NewConflictError(
				"user %d is already subscribed to promotion %d", s.UserID, s.PromotionID)
		}
	}
	stored := *s
	stored.ID = f.nextID
	f.nextID++
	stored.CreatedAt = time.Now()
	f.subscriptions[stored.ID] = stored
	out := stored
	return &out, nil
}

func (f *fakeSubscriptionRepo) GetSubscription(_ context.Context, id int64) (*domain.Subscription, error) {
	stored, ok := f.subscriptions[id]
	if !ok {
		return nil, domain.NewNotFoundError("subscription %d not found", id)
	}
	out := stored
	return &out, nil
}

func (f *fakeSubscriptionRepo) GetSubscriptionByPair(_ context.Context, userID, promotionID int64) (*domain.Subscription, error) {
	for _, s := range f.subscriptions {
		if s.UserID == userID && s.PromotionID == promotionID {
			out := s
			return &out, nil
		}
	}
	return nil, domain.NewNotFoundError("no subscription for user %d and promotion %d", userID, promotionID)
}

func (f *fakeSubscriptionRepo) ListSubscriptions(_ context.Context, filter domain.SubscriptionFilter) ([]domain.Subscription, int, error) {
	f.listCalls++
	var matched []domain.Subscription
	for _, s := range f.subscriptions {
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.PromotionID != nil && s.PromotionID != *filter.PromotionID {
			continue
		}
		if filter.IsActive != nil && s.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeSubscriptionRepo) SetSubscriptionInactive(_ context.Context, id int64) (*domain.Subscription, error) {
	stored, ok := f.subscriptions[id]
	if !ok || !stored.IsActive {
		return nil, domain.NewBusinessRuleError("subscription %d is already inactive", id)
	}
	stored.IsActive = false
	f.subscriptions[id] = stored
	out := stored
	return &out, nil
}

// fakeUserReader reports existence from a fixed id set.
type fakeUserReader struct {
	users map[int64]bool
}

func (f *fakeUserReader) UserExists(_ context.Context, id int64) (bool, error) {
	return f.users[id], nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []Event
	keys   []string
}

func (r *recordingPublisher) Publish(_ context.Context, routingKey string, event interface{}) error {
	if e, ok := event.(Event); ok {
		r.events = append(r.events, e)
	}
	r.keys = append(r.keys, routingKey)
	return nil
}
