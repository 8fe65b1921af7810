package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/promopulse/promotion-service/internal/app"
	"github.com/promopulse/promotion-service/internal/domain"
)

// memoryStore is a minimal in-memory backend implementing the engine
// interfaces, enough to drive the router end to end.
type memoryStore struct {
	promotions    map[int64]domain.Promotion
	subscriptions map[int64]domain.Subscription
	users         map[int64]domain.User
	nextID        int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		promotions:    make(map[int64]domain.Promotion),
		subscriptions: make(map[int64]domain.Subscription),
		users:         make(map[int64]domain.User),
		nextID:        1,
	}
}

func (m *memoryStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryStore) CreatePromotion(_ context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	stored := *p
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.promotions[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) GetPromotion(_ context.Context, id int64) (*domain.Promotion, error) {
	stored, ok := m.promotions[id]
	if !ok {
		return nil, domain.NewNotFoundError("promotion %d not found", id)
	}
	out := stored
	return &out, nil
}

func (m *memoryStore) ListPromotions(_ context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error) {
	var items []domain.Promotion
	for _, p := range m.promotions {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		items = append(items, p)
	}
	return items, len(items), nil
}

func (m *memoryStore) UpdatePromotionFields(_ context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error) {
	stored, ok := m.promotions[id]
	if !ok || stored.Status != current {
		return nil, domain.NewConflictError("promotion %d changed status concurrently", id)
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
	m.promotions[id] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) UpdatePromotionStatus(_ context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error) {
	stored, ok := m.promotions[id]
	if !ok || stored.Status != current {
		return nil, domain.NewConflictError("promotion %d changed status concurrently", id)
	}
	stored.Status = target
	m.promotions[id] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) CreateSubscription(_ context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	for _, existing := range m.subscriptions {
		if existing.UserID == s.UserID && existing.PromotionID == s.PromotionID {
			return nil, domain.NewConflictError(
				"user %d is already subscribed to promotion %d", s.UserID, s.PromotionID)
		}
	}
	stored := *s
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	m.subscriptions[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) GetSubscription(_ context.Context, id int64) (*domain.Subscription, error) {
	stored, ok := m.subscriptions[id]
	if !ok {
		return nil, domain.NewNotFoundError("subscription %d not found", id)
	}
	out := stored
	return &out, nil
}

func (m *memoryStore) GetSubscriptionByPair(_ context.Context, userID, promotionID int64) (*domain.Subscription, error) {
	for _, s := range m.subscriptions {
		if s.UserID == userID && s.PromotionID == promotionID {
			out := s
			return &out, nil
		}
	}
	return nil, domain.NewNotFoundError("no subscription for user %d and promotion %d", userID, promotionID)
}

func (m *memoryStore) ListSubscriptions(_ context.Context, filter domain.SubscriptionFilter) ([]domain.Subscription, int, error) {
	var items []domain.Subscription
	for _, s := range m.subscriptions {
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.PromotionID != nil && s.PromotionID != *filter.PromotionID {
			continue
		}
		if filter.IsActive != nil && s.IsActive != *filter.IsActive {
			continue
		}
		items = append(items, s)
	}
	return items, len(items), nil
}

func (m *memoryStore) SetSubscriptionInactive(_ context.Context, id int64) (*domain.Subscription, error) {
	stored, ok := m.subscriptions[id]
	if !ok || !stored.IsActive {
		return nil, domain.NewBusinessRuleError("subscription %d is already inactive", id)
	}
	stored.IsActive = false
	m.subscriptions[id] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	stored := *u
	stored.ID = m.id()
	stored.CreatedAt = time.Now()
	m.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *memoryStore) GetUser(_ context.Context, id int64) (*domain.User, error) {
	stored, ok := m.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user %d not found", id)
	}
	out := stored
	return &out, nil
}

func (m *memoryStore) UserExists(_ context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// reversingCodec is a trivially reversible PIICodec stand-in.
type reversingCodec struct{}

func (reversingCodec) Encode(plaintext string) (string, error)  { return "enc:" + plaintext, nil }
func (reversingCodec) Decode(ciphertext string) (string, error) { return ciphertext[4:], nil }

type testServer struct {
	router http.Handler
	store  *memoryStore
}

func newTestServer() *testServer {
	store := newMemoryStore()
	return &testServer{
		router: NewRouter(
			NewPromotionHandler(app.NewPromotionService(store, nil)),
			NewSubscriptionHandler(app.NewSubscriptionService(store, store, store, nil)),
			NewUserHandler(app.NewUserService(store, reversingCodec{})),
		),
		store: store,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedUser() int64 {
	user, _ := ts.store.CreateUser(context.Background(), &domain.User{
		EncryptedEmail: "enc:user@example.com",
		FullName:       "Test User",
	})
	return user.ID
}

func (ts *testServer) seedPromotion(status domain.PromotionStatus) int64 {
	start := time.Now().Add(time.Hour)
	promotion, _ := ts.store.CreatePromotion(context.Background(), &domain.Promotion{
		Name:    "Seeded",
		Status:  status,
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})
	return promotion.ID
}

func TestPromotionEndpoints(t *testing.T) {
	start := time.Now().Add(time.Hour).UTC()

	t.Run("create returns 201 with draft status", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/promotions", map[string]interface{}{
			"name":     "Spring Sale",
			"start_at": start.Format(time.RFC3339),
			"end_at":   start.Add(time.Hour).Format(time.RFC3339),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var promotion domain.Promotion
		if err := json.Unmarshal(rec.Body.Bytes(), &promotion); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if promotion.Status != domain.PromotionStatusDraft {
			t.Errorf("expected draft status, got %s", promotion.Status)
		}
	})

	t.Run("create with bad time range returns 422", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/promotions", map[string]interface{}{
			"name":     "Backwards",
			"start_at": start.Format(time.RFC3339),
			"end_at":   start.Add(-time.Hour).Format(time.RFC3339),
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/promotions/999", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("non-numeric id returns 422", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/promotions/abc", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("invalid transition returns 422", func(t *testing.T) {
		ts := newTestServer()
		id := ts.seedPromotion(domain.PromotionStatusDraft)
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/promotions/%d/status", id), map[string]string{"status": "ended"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("valid transition returns 200", func(t *testing.T) {
		ts := newTestServer()
		id := ts.seedPromotion(domain.PromotionStatusDraft)
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/promotions/%d/status", id), map[string]string{"status": "active"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown status value returns 422", func(t *testing.T) {
		ts := newTestServer()
		id := ts.seedPromotion(domain.PromotionStatusDraft)
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/promotions/%d/status", id), map[string]string{"status": "paused"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("patch on ended promotion returns 422", func(t *testing.T) {
		ts := newTestServer()
		id := ts.seedPromotion(domain.PromotionStatusEnded)
		rec := ts.do(t, http.MethodPatch, fmt.Sprintf("/promotions/%d", id), map[string]string{"name": "Too Late"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("list with invalid status filter returns 422", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/promotions?status=bogus", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("list returns items and total", func(t *testing.T) {
		ts := newTestServer()
		ts.seedPromotion(domain.PromotionStatusActive)
		rec := ts.do(t, http.MethodGet, "/promotions?status=active", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var list domain.PromotionList
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if list.Total != 1 {
			t.Errorf("expected total=1, got %d", list.Total)
		}
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	t.Run("create returns 201 for active promotion", func(t *testing.T) {
		ts := newTestServer()
		userID := ts.seedUser()
		promotionID := ts.seedPromotion(domain.PromotionStatusActive)
		rec := ts.do(t, http.MethodPost, "/subscriptions", map[string]int64{
			"user_id": userID, "promotion_id": promotionID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate pair returns 409", func(t *testing.T) {
		ts := newTestServer()
		userID := ts.seedUser()
		promotionID := ts.seedPromotion(domain.PromotionStatusActive)
		body := map[string]int64{"user_id": userID, "promotion_id": promotionID}
		if rec := ts.do(t, http.MethodPost, "/subscriptions", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if rec := ts.do(t, http.MethodPost, "/subscriptions", body); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("draft promotion returns 422", func(t *testing.T) {
		ts := newTestServer()
		userID := ts.seedUser()
		promotionID := ts.seedPromotion(domain.PromotionStatusDraft)
		rec := ts.do(t, http.MethodPost, "/subscriptions", map[string]int64{
			"user_id": userID, "promotion_id": promotionID,
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		ts := newTestServer()
		promotionID := ts.seedPromotion(domain.PromotionStatusActive)
		rec := ts.do(t, http.MethodPost, "/subscriptions", map[string]int64{
			"user_id": 999, "promotion_id": promotionID,
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("list without filters returns 422", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/subscriptions", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("list with both filters returns 422", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/subscriptions?user_id=1&promotion_id=2", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("second deactivate returns 422", func(t *testing.T) {
		ts := newTestServer()
		userID := ts.seedUser()
		promotionID := ts.seedPromotion(domain.PromotionStatusActive)
		rec := ts.do(t, http.MethodPost, "/subscriptions", map[string]int64{
			"user_id": userID, "promotion_id": promotionID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		var subscription domain.Subscription
		if err := json.Unmarshal(rec.Body.Bytes(), &subscription); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		path := fmt.Sprintf("/subscriptions/%d/deactivate", subscription.ID)
		if rec := ts.do(t, http.MethodPatch, path, nil); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec := ts.do(t, http.MethodPatch, path, nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 on second deactivate, got %d", rec.Code)
		}
	})
}

func TestUserEndpoints(t *testing.T) {
	t.Run("create returns 201 with plaintext email", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/users", map[string]string{
			"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var user domain.UserOut
		if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if user.Email != "ada@example.com" {
			t.Errorf("expected plaintext email in response, got %q", user.Email)
		}
	})

	t.Run("create without email returns 422", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodPost, "/users", map[string]string{"first_name": "Ada"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		ts := newTestServer()
		if rec := ts.do(t, http.MethodGet, "/users/999", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
