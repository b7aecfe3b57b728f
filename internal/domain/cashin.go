package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cash-in request statuses. A request is created pending; the approval
// workflow that settles it into approved or rejected lives outside this
// service and is the only writer of the terminal states.
const (
	CashInStatusPending  = "pending"
	CashInStatusApproved = "approved"
	CashInStatusRejected = "rejected"
)

// CashInRequest records a user's intent to add funds to the ledger through an
// agent. Creating a request never mutates any balance.
type CashInRequest struct {
	ID              uuid.UUID `json:"id"`
	RequesterNumber string    `json:"requester_number"`
	AgentNumber     string    `json:"agent_number"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
