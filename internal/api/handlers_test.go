package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paypulse/ledger-service/internal/app"
	"github.com/paypulse/ledger-service/internal/store"
)

func TestWriteEngineError_StatusMapping(t *testing.T) {
	h := &LedgerHandlers{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid amount", err: app.ErrInvalidAmount, wantStatus: http.StatusBadRequest},
		{name: "invalid recipient", err: app.ErrInvalidRecipient, wantStatus: http.StatusBadRequest},
		{name: "auth failed", err: app.ErrAuthFailed, wantStatus: http.StatusUnauthorized},
		{name: "role mismatch", err: app.ErrRoleMismatch, wantStatus: http.StatusForbidden},
		{name: "account not active", err: app.ErrAccountNotActive, wantStatus: http.StatusForbidden},
		{name: "account not found", err: store.ErrAccountNotFound, wantStatus: http.StatusNotFound},
		{name: "cash-in request not found", err: store.ErrCashInRequestNotFound, wantStatus: http.StatusNotFound},
		{name: "duplicate account", err: store.ErrDuplicateAccount, wantStatus: http.StatusConflict},
		{name: "insufficient funds", err: store.ErrInsufficientFunds, wantStatus: http.StatusUnprocessableEntity},
		{name: "rate limited", err: app.ErrRateLimited, wantStatus: http.StatusTooManyRequests},
		{name: "store busy", err: app.ErrStoreBusy, wantStatus: http.StatusServiceUnavailable},
		{name: "unclassified", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeEngineError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json response, got %q", ct)
			}
		})
	}
}

func TestWriteEngineError_WrappedErrorsStillClassify(t *testing.T) {
	h := &LedgerHandlers{}
	rec := httptest.NewRecorder()

	wrapped := errors.Join(errors.New("context"), app.ErrStoreBusy)
	h.writeEngineError(rec, wrapped)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped ErrStoreBusy to map to 503, got %d", rec.Code)
	}
}
