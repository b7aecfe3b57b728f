package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferCompletedEvent is published after both sides of a transfer have been
// applied. Consumers (notifications, analytics) must tolerate duplicates.
type TransferCompletedEvent struct {
	TransferID      uuid.UUID `json:"transfer_id"`
	Kind            string    `json:"kind"`
	SenderNumber    string    `json:"sender_number"`
	RecipientNumber string    `json:"recipient_number"`
	Amount          int64     `json:"amount"`
	Fee             int64     `json:"fee"`
	Timestamp       time.Time `json:"timestamp"`
}

// CashInRequestedEvent is published when a cash-in request has been queued for
// the external approval workflow.
type CashInRequestedEvent struct {
	RequestID       uuid.UUID `json:"request_id"`
	RequesterNumber string    `json:"requester_number"`
	AgentNumber     string    `json:"agent_number"`
	Amount          int64     `json:"amount"`
	Timestamp       time.Time `json:"timestamp"`
}
