/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * middleware for logging, panic recovery, CORS, and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the transport-level settings the router needs.
type RouterConfig struct {
	TokenSecret    string
	InternalAPIKey string
	AllowedOrigins []string
}

// LedgerRoutes creates and returns the router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Post("/auth/login", h.LoginHandler)

	// Group routes that require a holder session token.
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(cfg.TokenSecret))

		r.Post("/transfers/send", h.SendHandler)
		r.Post("/transfers/cash-out", h.CashOutHandler)
		r.Get("/transfers", h.ListTransfersHandler)

		r.Post("/cashin-requests", h.CreateCashInRequestHandler)
		r.Get("/cashin-requests", h.ListCashInRequestsHandler)
		r.Get("/cashin-requests/{id}", h.GetCashInRequestHandler)

		r.Get("/me", h.MeHandler)
	})

	// Internal routes for trusted collaborators (registration service).
	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(cfg.InternalAPIKey))

		r.Post("/internal/accounts", h.RegisterAccountHandler)
	})

	return r
}
