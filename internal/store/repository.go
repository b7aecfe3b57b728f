/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access the ledger-service needs. The interface decouples the balance
 * mutation engine from the concrete database so the engine can be exercised in
 * tests with stub repositories.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/google/uuid: For record identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/paypulse/ledger-service/internal/domain"
)

// Sentinel errors returned by repository implementations. The engine and the
// API layer classify failures with errors.Is against these values.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrDuplicateAccount      = errors.New("account number or email already exists")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrBalanceConflict       = errors.New("balance changed concurrently")
	ErrCashInRequestNotFound = errors.New("cash-in request not found")
)

// BalanceTransfer describes one two-sided balance mutation. Both updates are
// conditional on the balances the caller previously read: if either account's
// stored balance no longer matches its expected value at apply time, nothing
// is written and ErrBalanceConflict is returned. The Transfer record is
// persisted in the same transaction, so history exists exactly when the
// mutation took effect.
type BalanceTransfer struct {
	Transfer domain.Transfer

	DebitNumber    string
	DebitExpected  int64
	DebitNew       int64
	CreditNumber   string
	CreditExpected int64
	CreditNew      int64
}

// Repository defines the set of methods for interacting with the ledger store.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindAccountByIdentifier resolves a login identifier that may be either a
	// phone number or an email address.
	FindAccountByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)

	// ApplyBalanceTransfer atomically applies the debit and the credit, or
	// neither. Returns ErrBalanceConflict when an interleaved mutation
	// invalidated either expected balance.
	ApplyBalanceTransfer(ctx context.Context, bt BalanceTransfer) error
	ListTransfersByNumber(ctx context.Context, number string, limit int) ([]domain.Transfer, error)

	// Cash-in request methods. Creation is the only state transition owned by
	// this service; approval and rejection belong to the external workflow.
	CreateCashInRequest(ctx context.Context, req *domain.CashInRequest) error
	GetCashInRequest(ctx context.Context, id uuid.UUID) (*domain.CashInRequest, error)
	ListCashInRequestsByStatus(ctx context.Context, status string) ([]domain.CashInRequest, error)
}
