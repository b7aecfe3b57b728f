package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transfer kinds. A send moves value between two user accounts; a cash-out
// moves value from a user account to an agent account.
const (
	TransferKindSend    = "send"
	TransferKindCashOut = "cash_out"
)

// Transfer is the durable history record of one completed balance mutation.
// It is written in the same database transaction as the balance changes, so a
// transfer row exists exactly when both sides of the mutation took effect.
type Transfer struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	SenderNumber    string    `json:"sender_number"`
	RecipientNumber string    `json:"recipient_number"`
	Amount          int64     `json:"amount"`
	Fee             int64     `json:"fee"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransferReceipt is returned to the caller after a successful transfer.
// Both resulting balances are included so the caller can verify the outcome
// instead of trusting a single side.
type TransferReceipt struct {
	TransferID       uuid.UUID `json:"transfer_id"`
	Kind             string    `json:"kind"`
	Amount           int64     `json:"amount"`
	Fee              int64     `json:"fee"`
	SenderBalance    int64     `json:"sender_balance"`
	RecipientBalance int64     `json:"recipient_balance"`
}
