/**
 * @description
 * This file implements the data access layer for the promotion-service. It
 * contains all the SQL queries and logic for interacting with the database.
 * Storage failures are translated into the shared domain error taxonomy at
 * this boundary: missing rows become not-found errors, SQLSTATE 23505 becomes
 * a conflict, SQLSTATE 23503 becomes a not-found on the referenced entity,
 * and anything else surfaces as a storage error.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promopulse/promotion-service/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository handles database operations for promotions, subscriptions and users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const promotionColumns = `id, name, description, status, start_at, end_at, created_at, updated_at, created_by`

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var p domain.Promotion
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.StartAt,
		&p.EndAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePromotion inserts a new promotion and returns the stored record.
func (r *Repository) CreatePromotion(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	query := `
        INSERT INTO promotions (name, description, status, start_at, end_at, created_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + promotionColumns
	created, err := scanPromotion(r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.Status, p.StartAt, p.EndAt, p.CreatedBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, domain.NewNotFoundError("user %d not found", p.CreatedBy)
		}
		return nil, domain.NewStorageError("insert promotion", err)
	}
	return created, nil
}

// GetPromotion retrieves a promotion by its ID.
func (r *Repository) GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`
	p, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("promotion %d not found", id)
		}
		return nil, domain.NewStorageError("get promotion", err)
	}
	return p, nil
}

// ListPromotions returns a page of promotions ordered by creation time,
// optionally filtered by exact status, plus the total match count.
func (r *Repository) ListPromotions(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Status != nil {
		where = " WHERE status = $1"
		args = append(args, *filter.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM promotions` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewStorageError("count promotions", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM promotions%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		promotionColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.NewStorageError("list promotions", err)
	}
	defer rows.Close()

	var promotions []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, 0, domain.NewStorageError("scan promotion", err)
		}
		promotions = append(promotions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewStorageError("iterate promotions", err)
	}
	return promotions, total, nil
}

// UpdatePromotionFields applies the supplied patch fields to a promotion.
// The caller has already validated which fields may change against the status
// it read; that status is part of the WHERE clause so a concurrent transition
// invalidates the edit instead of letting it commit against the wrong state.
func (r *Repository) UpdatePromotionFields(ctx context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error) {
	set := ""
	args := []interface{}{}
	appendSet := func(column string, value interface{}) {
		if set != "" {
			set += ", "
		}
		args = append(args, value)
		set += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if patch.Name != nil {
		appendSet("name", *patch.Name)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.StartAt != nil {
		appendSet("start_at", *patch.StartAt)
	}
	if patch.EndAt != nil {
		appendSet("end_at", *patch.EndAt)
	}
	if set == "" {
		return r.GetPromotion(ctx, id)
	}

	args = append(args, id, current)
	query := fmt.Sprintf(`UPDATE promotions SET %s, updated_at = NOW() WHERE id = $%d AND status = $%d RETURNING %s`,
		set, len(args)-1, len(args), promotionColumns)
	p, err := scanPromotion(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewConflictError(
				"promotion %d changed status concurrently, expected %s", id, current)
		}
		return nil, domain.NewStorageError("update promotion", err)
	}
	return p, nil
}

// UpdatePromotionStatus persists a status transition. The expected current
// status is part of the WHERE clause so two racing transition requests cannot
// both commit; the loser sees no row and reports the stale read.
func (r *Repository) UpdatePromotionStatus(ctx context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error) {
	query := `
        UPDATE promotions
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
        RETURNING ` + promotionColumns
	p, err := scanPromotion(r.db.QueryRow(ctx, query, target, id, current))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewConflictError(
				"promotion %d changed status concurrently, expected %s", id, current)
		}
		return nil, domain.NewStorageError("update promotion status", err)
	}
	return p, nil
}

const subscriptionColumns = `id, user_id, promotion_id, is_active, metadata, created_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	var metadata []byte
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PromotionID,
		&s.IsActive,
		&metadata,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode subscription metadata: %w", err)
		}
	}
	return &s, nil
}

// CreateSubscription inserts a new subscription row. The unique constraint on
// (user_id, promotion_id) backs the application-level duplicate check against
// concurrent creates.
func (r *Repository) CreateSubscription(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	var metadata []byte
	if s.Metadata != nil {
		encoded, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, domain.NewStorageError("encode subscription metadata", err)
		}
		metadata = encoded
	}

	query := `
        INSERT INTO subscriptions (user_id, promotion_id, is_active, metadata)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + subscriptionColumns
	created, err := scanSubscription(r.db.QueryRow(ctx, query, s.UserID, s.PromotionID, s.IsActive, metadata))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, domain.NewConflictError(
					"user %d is already subscribed to promotion %d", s.UserID, s.PromotionID)
			case pgForeignKeyViolation:
				return nil, domain.NewNotFoundError(
					"user %d or promotion %d not found", s.UserID, s.PromotionID)
			}
		}
		return nil, domain.NewStorageError("insert subscription", err)
	}
	return created, nil
}

// GetSubscription retrieves a subscription by its ID.
func (r *Repository) GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("subscription %d not found", id)
		}
		return nil, domain.NewStorageError("get subscription", err)
	}
	return s, nil
}

// GetSubscriptionByPair retrieves the subscription for a (user, promotion)
// pair regardless of its active flag. At most one row can exist.
func (r *Repository) GetSubscriptionByPair(ctx context.Context, userID, promotionID int64) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 AND promotion_id = $2`
	s, err := scanSubscription(r.db.QueryRow(ctx, query, userID, promotionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError(
				"no subscription for user %d and promotion %d", userID, promotionID)
		}
		return nil, domain.NewStorageError("get subscription by pair", err)
	}
	return s, nil
}

// ListSubscriptions returns a page of subscriptions matching the filter,
// ordered by id, plus the total match count. The engine guarantees exactly
// one of UserID or PromotionID is set before this is called.
func (r *Repository) ListSubscriptions(ctx context.Context, filter domain.SubscriptionFilter) ([]domain.Subscription, int, error) {
	where := ""
	args := []interface{}{}
	appendWhere := func(clause string, value interface{}) {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.UserID != nil {
		appendWhere("user_id = $%d", *filter.UserID)
	}
	if filter.PromotionID != nil {
		appendWhere("promotion_id = $%d", *filter.PromotionID)
	}
	if filter.IsActive != nil {
		appendWhere("is_active = $%d", *filter.IsActive)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM subscriptions` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, domain.NewStorageError("count subscriptions", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM subscriptions%s ORDER BY id LIMIT $%d OFFSET $%d`,
		subscriptionColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.NewStorageError("list subscriptions", err)
	}
	defer rows.Close()

	var subscriptions []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, domain.NewStorageError("scan subscription", err)
		}
		subscriptions = append(subscriptions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.NewStorageError("iterate subscriptions", err)
	}
	return subscriptions, total, nil
}

// SetSubscriptionInactive flips is_active to false. The WHERE clause requires
// the row to still be active so two racing deactivations cannot both succeed.
func (r *Repository) SetSubscriptionInactive(ctx context.Context, id int64) (*domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET is_active = FALSE
        WHERE id = $1 AND is_active = TRUE
        RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewBusinessRuleError("subscription %d is already inactive", id)
		}
		return nil, domain.NewStorageError("deactivate subscription", err)
	}
	return s, nil
}

const userColumns = `id, encrypted_email, COALESCE(encrypted_phone, ''), full_name, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.EncryptedEmail,
		&u.EncryptedPhone,
		&u.FullName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user with already-encrypted PII.
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	var phone interface{}
	if u.EncryptedPhone != "" {
		phone = u.EncryptedPhone
	}

	query := `
        INSERT INTO users (encrypted_email, encrypted_phone, full_name)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRow(ctx, query, u.EncryptedEmail, phone, u.FullName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.NewConflictError("user with this email already exists")
		}
		return nil, domain.NewStorageError("insert user", err)
	}
	return created, nil
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user %d not found", id)
		}
		return nil, domain.NewStorageError("get user", err)
	}
	return u, nil
}

// UserExists reports whether a user row exists without touching its PII.
func (r *Repository) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, domain.NewStorageError("check user exists", err)
	}
	return exists, nil
}
