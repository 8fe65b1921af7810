/**
 * @description
 * This file sets up the HTTP router for the promotion-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, recovery, timeouts, and CORS, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the promotion-service routes.
func NewRouter(promotions *PromotionHandler, subscriptions *SubscriptionHandler, users *UserHandler) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Promotion service is healthy"))
	})

	r.Route("/promotions", func(r chi.Router) {
		r.Post("/", promotions.handleCreatePromotion)
		r.Get("/", promotions.handleListPromotions)
		r.Get("/{id}", promotions.handleGetPromotion)
		r.Patch("/{id}", promotions.handleUpdatePromotion)
		r.Post("/{id}/status", promotions.handleChangePromotionStatus)
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", subscriptions.handleCreateSubscription)
		r.Get("/", subscriptions.handleListSubscriptions)
		r.Patch("/{id}/deactivate", subscriptions.handleDeactivateSubscription)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", users.handleCreateUser)
		r.Get("/{id}", users.handleGetUser)
	})

	return r
}
