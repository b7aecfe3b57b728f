/**
 * @description
 * This file defines the Account domain model for the ledger-service. An account
 * is a single ledger entry keyed by a unique phone number and email, holding an
 * integer balance in the smallest currency unit.
 *
 * @notes
 * - The PIN hash is deliberately excluded from JSON serialization. It must never
 *   leave the service boundary.
 * - Role and number are immutable once an account has been created.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account roles. Agents receive cash-out transfers and mediate cash-in
// requests; users receive peer transfers.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Account statuses. Accounts start pending and are activated by an external
// admin workflow before they can move money.
const (
	AccountStatusPending = "pending"
	AccountStatusActive  = "active"
)

// Account represents a single mobile-money ledger entry.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	Email     string    `json:"email"`
	PINHash   string    `json:"-"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the account may participate in money movement.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
