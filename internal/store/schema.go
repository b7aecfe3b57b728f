package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Statements are idempotent so repeated boots
// are safe. The balance check constraint backstops the non-negative balance
// invariant at the storage layer.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	number TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	pin_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	status TEXT NOT NULL DEFAULT 'pending',
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transfers (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	sender_number TEXT NOT NULL,
	recipient_number TEXT NOT NULL,
	amount BIGINT NOT NULL,
	fee BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transfers_sender_number ON transfers (sender_number, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transfers_recipient_number ON transfers (recipient_number, created_at DESC);

CREATE TABLE IF NOT EXISTS cash_in_requests (
	id UUID PRIMARY KEY,
	requester_number TEXT NOT NULL,
	agent_number TEXT NOT NULL,
	amount BIGINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_cash_in_requests_status ON cash_in_requests (status, created_at ASC);
`

// EnsureSchema creates the ledger tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return nil
}
