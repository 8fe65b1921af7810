/**
 * @description
 * This file contains the promotion lifecycle engine. It owns the status state
 * machine (draft -> active -> ended, one-way, no skips) and the status-based
 * field mutability rules, and is the only component that mutates promotions.
 */
package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/promopulse/promotion-service/internal/domain"
)

// validTransitions is the full transition table. Anything absent is illegal,
// including same-status requests.
var validTransitions = map[domain.PromotionStatus]domain.PromotionStatus{
	domain.PromotionStatusDraft:  domain.PromotionStatusActive,
	domain.PromotionStatusActive: domain.PromotionStatusEnded,
}

// editableFields returns the set of patchable field names for a status.
func editableFields(status domain.PromotionStatus) map[string]bool {
	switch status {
	case domain.PromotionStatusDraft:
		return map[string]bool{"name": true, "description": true, "start_at": true, "end_at": true}
	case domain.PromotionStatusActive:
		return map[string]bool{"name": true, "description": true}
	default:
		return map[string]bool{}
	}
}

// PromotionRepository defines the persistence operations the engine needs.
type PromotionRepository interface {
	CreatePromotion(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error)
	ListPromotions(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error)
	UpdatePromotionFields(ctx context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error)
	UpdatePromotionStatus(ctx context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error)
}

// PromotionService provides the business logic for promotion management.
type PromotionService struct {
	repo      PromotionRepository
	publisher EventPublisher
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(repo PromotionRepository, publisher EventPublisher) *PromotionService {
	return &PromotionService{repo: repo, publisher: publisher}
}

func validateTimeRange(startAt, endAt time.Time) error {
	if !endAt.After(startAt) {
		return domain.NewValidationError(
			"end_at (%s) must be after start_at (%s)",
			endAt.Format(time.RFC3339), startAt.Format(time.RFC3339))
	}
	return nil
}

// Create validates and persists a new promotion in draft status.
func (s *PromotionService) Create(ctx context.Context, req domain.CreatePromotionRequest, createdBy int64) (*domain.Promotion, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("name must not be empty")
	}
	if err := validateTimeRange(req.StartAt, req.EndAt); err != nil {
		return nil, err
	}

	log.Printf("level=info component=promotions msg=\"creating promotion\" name=%q created_by=%d", req.Name, createdBy)

	return s.repo.CreatePromotion(ctx, &domain.Promotion{
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.PromotionStatusDraft,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		CreatedBy:   createdBy,
	})
}

// Get retrieves a promotion by ID.
func (s *PromotionService) Get(ctx context.Context, id int64) (*domain.Promotion, error) {
	return s.repo.GetPromotion(ctx, id)
}

// List returns a page of promotions, optionally filtered by status.
func (s *PromotionService) List(ctx context.Context, filter domain.PromotionFilter) (*domain.PromotionList, error) {
	if err := normalizePage(&filter.Limit, &filter.Offset); err != nil {
		return nil, err
	}

	promotions, total, err := s.repo.ListPromotions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if promotions == nil {
		promotions = []domain.Promotion{}
	}
	return &domain.PromotionList{Items: promotions, Total: total}, nil
}

// Update applies a partial update, enforcing status-based field mutability:
// draft promotions accept any field, active ones only name and description,
// ended ones nothing.
func (s *PromotionService) Update(ctx context.Context, id int64, patch domain.UpdatePromotionRequest) (*domain.Promotion, error) {
	promotion, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := editableFields(promotion.Status)
	for _, field := range patch.FieldNames() {
		if !allowed[field] {
			return nil, domain.NewValidationError(
				"cannot edit field %q when promotion is in %s status", field, promotion.Status)
		}
	}

	// Re-validate the time range on the merged record when either bound moves.
	if patch.StartAt != nil || patch.EndAt != nil {
		newStart := promotion.StartAt
		newEnd := promotion.EndAt
		if patch.StartAt != nil {
			newStart = *patch.StartAt
		}
		if patch.EndAt != nil {
			newEnd = *patch.EndAt
		}
		if err := validateTimeRange(newStart, newEnd); err != nil {
			return nil, err
		}
	}

	log.Printf("level=info component=promotions msg=\"updating promotion\" promotion_id=%d fields=%v", id, patch.FieldNames())

	return s.repo.UpdatePromotionFields(ctx, id, promotion.Status, patch)
}

// ChangeStatus applies a lifecycle transition. Only draft->active and
// active->ended are legal; the change is irreversible.
func (s *PromotionService) ChangeStatus(ctx context.Context, id int64, target domain.PromotionStatus) (*domain.Promotion, error) {
	promotion, err := s.repo.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}

	if next, ok := validTransitions[promotion.Status]; !ok || next != target {
		return nil, domain.NewValidationError(
			"cannot transition from %s to %s, valid transitions: draft->active, active->ended",
			promotion.Status, target)
	}

	log.Printf("level=info component=promotions msg=\"changing promotion status\" promotion_id=%d from=%s to=%s",
		id, promotion.Status, target)

	updated, err := s.repo.UpdatePromotionStatus(ctx, id, promotion.Status, target)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, EventPromotionStatusChanged, PromotionStatusChangedPayload{
		PromotionID: updated.ID,
		From:        string(promotion.Status),
		To:          string(updated.Status),
	})
	return updated, nil
}
