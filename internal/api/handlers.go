/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and mapping engine errors
 * onto transport-level responses. They act as the bridge between the web layer
 * and the balance mutation engine.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Session token issuance at login.
 * - internal/app, internal/domain, internal/store: Engine, models, errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/paypulse/ledger-service/internal/app"
	"github.com/paypulse/ledger-service/internal/domain"
	"github.com/paypulse/ledger-service/internal/store"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service     *app.Service
	tokenSecret string
	tokenTTL    time.Duration
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service, tokenSecret string, tokenTTL time.Duration) *LedgerHandlers {
	return &LedgerHandlers{
		service:     service,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeEngineError maps engine and store sentinels to HTTP statuses. Every
// failure path yields exactly one classification and a human-readable message.
func (h *LedgerHandlers) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "Amount is below the minimum transferable value.")
	case errors.Is(err, app.ErrInvalidRecipient):
		h.writeError(w, http.StatusBadRequest, "Sender and recipient must be different accounts.")
	case errors.Is(err, app.ErrAuthFailed):
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, app.ErrRoleMismatch):
		h.writeError(w, http.StatusForbidden, "Recipient role does not allow this transfer kind.")
	case errors.Is(err, app.ErrAccountNotActive):
		h.writeError(w, http.StatusForbidden, "Account is not active.")
	case errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found.")
	case errors.Is(err, store.ErrCashInRequestNotFound):
		h.writeError(w, http.StatusNotFound, "Cash-in request not found.")
	case errors.Is(err, store.ErrDuplicateAccount):
		h.writeError(w, http.StatusConflict, "Account number or email already exists.")
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusUnprocessableEntity, "Insufficient funds.")
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Too many transfer attempts. Please wait and try again.")
	case errors.Is(err, app.ErrStoreBusy):
		h.writeError(w, http.StatusServiceUnavailable, "Ledger is busy. Please retry.")
	default:
		log.Printf("level=error component=api msg=\"unhandled engine error\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	PIN        string `json:"pin"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// LoginHandler authenticates a holder by number-or-email plus PIN and issues
// the session token consumed by the authenticated routes.
func (h *LedgerHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	account, err := h.service.Login(r.Context(), req.Identifier, req.PIN)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": account.Email,
		"iat": now.Unix(),
		"exp": now.Add(h.tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.tokenSecret))
	if err != nil {
		log.Printf("level=error component=api msg=\"token signing failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not issue session token.")
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{Token: signed, Account: account})
}

type transferRequest struct {
	RecipientNumber string `json:"recipient_number"`
	Amount          int64  `json:"amount"`
	PIN             string `json:"pin"`
}

// SendHandler handles peer transfers to a user-role recipient.
func (h *LedgerHandlers) SendHandler(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, h.service.Send)
}

// CashOutHandler handles transfers to an agent-role recipient.
func (h *LedgerHandlers) CashOutHandler(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, h.service.CashOut)
}

func (h *LedgerHandlers) handleTransfer(
	w http.ResponseWriter,
	r *http.Request,
	execute func(ctx context.Context, senderEmail, recipientNumber string, amount int64, pin string) (*domain.TransferReceipt, error),
) {
	senderEmail, ok := GetAccountEmail(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not resolve caller identity.")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	receipt, err := execute(r.Context(), senderEmail, req.RecipientNumber, req.Amount, req.PIN)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, receipt)
}

type cashInRequestBody struct {
	AgentNumber string `json:"agent_number"`
	Amount      int64  `json:"amount"`
	PIN         string `json:"pin"`
}

// CreateCashInRequestHandler queues a cash-in request for the external
// approval workflow. No balance changes here.
func (h *LedgerHandlers) CreateCashInRequestHandler(w http.ResponseWriter, r *http.Request) {
	requesterEmail, ok := GetAccountEmail(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not resolve caller identity.")
		return
	}

	var req cashInRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	request, err := h.service.RequestCashIn(r.Context(), requesterEmail, req.AgentNumber, req.Amount, req.PIN)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, request)
}

// GetCashInRequestHandler fetches a single queued cash-in request.
func (h *LedgerHandlers) GetCashInRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request id.")
		return
	}

	request, err := h.service.GetCashInRequest(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, request)
}

// ListCashInRequestsHandler lists queued requests by status (default pending).
func (h *LedgerHandlers) ListCashInRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListCashInRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if requests == nil {
		requests = []domain.CashInRequest{}
	}
	h.writeJSON(w, http.StatusOK, requests)
}

// ListTransfersHandler returns the caller's transfer history.
func (h *LedgerHandlers) ListTransfersHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := GetAccountEmail(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not resolve caller identity.")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	transfers, err := h.service.ListTransfers(r.Context(), email, limit)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if transfers == nil {
		transfers = []domain.Transfer{}
	}
	h.writeJSON(w, http.StatusOK, transfers)
}

// MeHandler returns the caller's account. The PIN hash never serializes.
func (h *LedgerHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := GetAccountEmail(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not resolve caller identity.")
		return
	}

	account, err := h.service.Profile(r.Context(), email)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

type registerAccountRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Email  string `json:"email"`
	PIN    string `json:"pin"`
	Role   string `json:"role"`
}

// RegisterAccountHandler is the internal intake used by the registration
// service. Accounts are created pending with a zero balance.
func (h *LedgerHandlers) RegisterAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	account, err := h.service.RegisterAccount(r.Context(), app.RegisterAccountInput{
		Name:   req.Name,
		Number: req.Number,
		Email:  req.Email,
		PIN:    req.PIN,
		Role:   req.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			h.writeEngineError(w, err)
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}
