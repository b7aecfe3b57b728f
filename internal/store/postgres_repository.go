/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface using the pgx driver and a pgxpool connection pool. All balance
 * mutations go through ApplyBalanceTransfer, which runs a single database
 * transaction with compare-and-set guards on both rows.
 *
 * @dependencies
 * - context, errors, fmt, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paypulse/ledger-service/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository implements the Repository interface against PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, name, number, email, pin_hash, role, status, balance, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Number,
		&account.Email,
		&account.PINHash,
		&account.Role,
		&account.Status,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount inserts a new account record. Phone number and email are
// globally unique; collisions surface as ErrDuplicateAccount.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, number, email, pin_hash, role, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Number,
		account.Email,
		account.PINHash,
		account.Role,
		account.Status,
		account.Balance,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// FindAccountByNumber looks up an account by its phone number.
func (r *PostgresRepository) FindAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1`
	return scanAccount(r.db.QueryRow(ctx, query, number))
}

// FindAccountByEmail looks up an account by its email address.
func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

// FindAccountByIdentifier resolves a login identifier that may be a phone
// number or an email address.
func (r *PostgresRepository) FindAccountByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1 OR email = $1`
	return scanAccount(r.db.QueryRow(ctx, query, identifier))
}

// ApplyBalanceTransfer applies the debit and the credit in one database
// transaction. Each UPDATE is guarded by the balance the engine read before
// computing the new values; a guard miss on either side rolls the whole
// transaction back and returns ErrBalanceConflict so the engine can re-read
// and retry. Rows are updated in deterministic number order to avoid lock
// order inversion between concurrent transfers.
func (r *PostgresRepository) ApplyBalanceTransfer(ctx context.Context, bt BalanceTransfer) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	type conditionalUpdate struct {
		number   string
		expected int64
		next     int64
	}
	updates := []conditionalUpdate{
		{number: bt.DebitNumber, expected: bt.DebitExpected, next: bt.DebitNew},
		{number: bt.CreditNumber, expected: bt.CreditExpected, next: bt.CreditNew},
	}
	if updates[1].number < updates[0].number {
		updates[0], updates[1] = updates[1], updates[0]
	}

	for _, u := range updates {
		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET balance = $1 WHERE number = $2 AND balance = $3`,
			u.next, u.number, u.expected,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance for %s: %w", u.number, err)
		}
		if tag.RowsAffected() != 1 {
			return ErrBalanceConflict
		}
	}

	insertQuery := `
		INSERT INTO transfers (id, kind, sender_number, recipient_number, amount, fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, insertQuery,
		bt.Transfer.ID,
		bt.Transfer.Kind,
		bt.Transfer.SenderNumber,
		bt.Transfer.RecipientNumber,
		bt.Transfer.Amount,
		bt.Transfer.Fee,
		bt.Transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer record: %w", err)
	}

	return tx.Commit(ctx)
}

// ListTransfersByNumber returns the most recent transfers in which the account
// participated, newest first.
func (r *PostgresRepository) ListTransfersByNumber(ctx context.Context, number string, limit int) ([]domain.Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, kind, sender_number, recipient_number, amount, fee, created_at
		FROM transfers
		WHERE sender_number = $1 OR recipient_number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, number, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.Kind, &t.SenderNumber, &t.RecipientNumber, &t.Amount, &t.Fee, &t.CreatedAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// CreateCashInRequest inserts a new pending cash-in request.
func (r *PostgresRepository) CreateCashInRequest(ctx context.Context, req *domain.CashInRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO cash_in_requests (id, requester_number, agent_number, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.RequesterNumber,
		req.AgentNumber,
		req.Amount,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash-in request: %w", err)
	}
	return nil
}

// GetCashInRequest fetches a single cash-in request by id.
func (r *PostgresRepository) GetCashInRequest(ctx context.Context, id uuid.UUID) (*domain.CashInRequest, error) {
	query := `
		SELECT id, requester_number, agent_number, amount, status, created_at
		FROM cash_in_requests
		WHERE id = $1
	`
	var req domain.CashInRequest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.RequesterNumber,
		&req.AgentNumber,
		&req.Amount,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCashInRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListCashInRequestsByStatus returns cash-in requests in the given state,
// oldest first, for the external approval workflow.
func (r *PostgresRepository) ListCashInRequestsByStatus(ctx context.Context, status string) ([]domain.CashInRequest, error) {
	query := `
		SELECT id, requester_number, agent_number, amount, status, created_at
		FROM cash_in_requests
		WHERE status = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash-in requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.CashInRequest
	for rows.Next() {
		var req domain.CashInRequest
		if err := rows.Scan(&req.ID, &req.RequesterNumber, &req.AgentNumber, &req.Amount, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
