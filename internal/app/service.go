/**
 * @description
 * This file contains the core business logic for the ledger-service: the
 * balance mutation engine. The `Service` struct orchestrates the three money
 * movement kinds (send, cash-out, cash-in request), enforcing validation, PIN
 * authorization, role rules, the flat fee, and atomic two-sided balance
 * application with bounded conflict retry.
 *
 * Key rules:
 * - Minimum transferable amount is configurable (default 50 units).
 * - A flat fee applies when the amount exceeds the fee-free limit. The fee is
 *   debited from the sender and credited nowhere: it leaves circulation.
 * - A sender whose resulting balance would go negative causes the whole
 *   operation to be rejected with no mutation on either side.
 * - The debit and credit are applied through one conditional store operation;
 *   a concurrent interleaving surfaces as a conflict and the operation is
 *   retried from a fresh read, a bounded number of times.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For transfer and request identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Best-effort event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paypulse/ledger-service/internal/domain"
	"github.com/paypulse/ledger-service/internal/store"
	"github.com/paypulse/ledger-service/pkg/rabbitmq"
)

// Sentinel errors classified by the API layer. Unknown identity and PIN
// mismatch deliberately collapse into ErrAuthFailed so callers cannot probe
// which check failed.
var (
	ErrInvalidAmount    = errors.New("amount is below the minimum transferable value")
	ErrInvalidRecipient = errors.New("sender and recipient must be different accounts")
	ErrRoleMismatch     = errors.New("recipient role does not allow this transfer kind")
	ErrAuthFailed       = errors.New("identity or pin is invalid")
	ErrAccountNotActive = errors.New("account is not active")
	ErrStoreBusy        = errors.New("ledger is busy, please retry")
	ErrRateLimited      = errors.New("too many transfer attempts")
)

// TransferRateLimiter counts transfer attempts per subject within a fixed
// window. A nil limiter disables rate limiting.
type TransferRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for balance mutations.
type Service struct {
	repo          store.Repository
	verifier      CredentialVerifier
	eventProducer rabbitmq.Publisher
	eventExchange string

	minAmount       int64
	feeFreeLimit    int64
	flatFee         int64
	conflictRetries int

	rateLimiter        TransferRateLimiter
	rateLimitPerMinute int
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository, verifier CredentialVerifier, producer rabbitmq.Publisher, eventExchange string, minAmount, feeFreeLimit, flatFee int64, conflictRetries int) *Service {
	if conflictRetries < 1 {
		conflictRetries = 1
	}
	return &Service{
		repo:            repo,
		verifier:        verifier,
		eventProducer:   producer,
		eventExchange:   eventExchange,
		minAmount:       minAmount,
		feeFreeLimit:    feeFreeLimit,
		flatFee:         flatFee,
		conflictRetries: conflictRetries,
	}
}

// SetTransferRateLimiter enables per-sender attempt limiting on the money
// movement entry points.
func (s *Service) SetTransferRateLimiter(limiter TransferRateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.rateLimitPerMinute = perMinute
}

// Fee returns the flat fee charged for the given amount.
func (s *Service) Fee(amount int64) int64 {
	if amount > s.feeFreeLimit {
		return s.flatFee
	}
	return 0
}

// Send moves value from the sender to a user-role recipient identified by
// phone number, authorized by the sender's PIN.
func (s *Service) Send(ctx context.Context, senderEmail, recipientNumber string, amount int64, pin string) (*domain.TransferReceipt, error) {
	return s.transfer(ctx, domain.TransferKindSend, domain.RoleUser, senderEmail, recipientNumber, amount, pin)
}

// CashOut moves value from the sender to an agent-role recipient, converting
// ledger balance toward physical cash. Settlement with the agent is external.
func (s *Service) CashOut(ctx context.Context, senderEmail, agentNumber string, amount int64, pin string) (*domain.TransferReceipt, error) {
	return s.transfer(ctx, domain.TransferKindCashOut, domain.RoleAgent, senderEmail, agentNumber, amount, pin)
}

func (s *Service) transfer(ctx context.Context, kind, recipientRole, senderEmail, recipientNumber string, amount int64, pin string) (*domain.TransferReceipt, error) {
	// 1. Validate the amount before touching any account state. Zero and
	// negative amounts fail the same check as sub-minimum ones.
	if amount < s.minAmount {
		return nil, ErrInvalidAmount
	}

	if err := s.consumeTransferAttempt(ctx, senderEmail); err != nil {
		return nil, err
	}

	// 2. Resolve the recipient and enforce the role rule for this kind.
	recipient, err := s.repo.FindAccountByNumber(ctx, recipientNumber)
	if err != nil {
		return nil, err
	}
	if recipient.Role != recipientRole {
		return nil, ErrRoleMismatch
	}
	if !recipient.IsActive() {
		return nil, ErrAccountNotActive
	}

	// 3. Authenticate the sender. An unknown email and a wrong PIN look the
	// same to the caller.
	sender, err := s.repo.FindAccountByEmail(ctx, senderEmail)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	if !s.verifier.Verify(pin, sender.PINHash) {
		return nil, ErrAuthFailed
	}
	if !sender.IsActive() {
		return nil, ErrAccountNotActive
	}
	if sender.Number == recipient.Number {
		return nil, ErrInvalidRecipient
	}

	// 4. Compute the fee and apply the two-sided mutation. On a balance
	// conflict the whole operation restarts from a fresh read of both
	// accounts, a bounded number of times.
	fee := s.Fee(amount)

	for attempt := 0; attempt < s.conflictRetries; attempt++ {
		if attempt > 0 {
			sender, err = s.repo.FindAccountByNumber(ctx, sender.Number)
			if err != nil {
				return nil, err
			}
			recipient, err = s.repo.FindAccountByNumber(ctx, recipient.Number)
			if err != nil {
				return nil, err
			}
		}

		newSenderBalance := sender.Balance - amount - fee
		if newSenderBalance < 0 {
			return nil, store.ErrInsufficientFunds
		}
		newRecipientBalance := recipient.Balance + amount

		transfer := domain.Transfer{
			ID:              uuid.New(),
			Kind:            kind,
			SenderNumber:    sender.Number,
			RecipientNumber: recipient.Number,
			Amount:          amount,
			Fee:             fee,
			CreatedAt:       time.Now().UTC(),
		}

		err = s.repo.ApplyBalanceTransfer(ctx, store.BalanceTransfer{
			Transfer:       transfer,
			DebitNumber:    sender.Number,
			DebitExpected:  sender.Balance,
			DebitNew:       newSenderBalance,
			CreditNumber:   recipient.Number,
			CreditExpected: recipient.Balance,
			CreditNew:      newRecipientBalance,
		})
		if err != nil {
			if errors.Is(err, store.ErrBalanceConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to apply balance transfer: %w", err)
		}

		s.publishTransferCompleted(ctx, &transfer)

		return &domain.TransferReceipt{
			TransferID:       transfer.ID,
			Kind:             kind,
			Amount:           amount,
			Fee:              fee,
			SenderBalance:    newSenderBalance,
			RecipientBalance: newRecipientBalance,
		}, nil
	}

	log.Printf("level=warn component=engine msg=\"balance conflict retries exhausted\" kind=%s sender=%s recipient=%s", kind, sender.Number, recipient.Number)
	return nil, ErrStoreBusy
}

// RequestCashIn records a user's intent to add funds through an agent. The
// request is queued pending for the external approval workflow; no balance
// changes here.
func (s *Service) RequestCashIn(ctx context.Context, requesterIdentifier, agentNumber string, amount int64, pin string) (*domain.CashInRequest, error) {
	if amount < s.minAmount {
		return nil, ErrInvalidAmount
	}

	if err := s.consumeTransferAttempt(ctx, requesterIdentifier); err != nil {
		return nil, err
	}

	agent, err := s.repo.FindAccountByNumber(ctx, agentNumber)
	if err != nil {
		return nil, err
	}
	if agent.Role != domain.RoleAgent {
		return nil, ErrRoleMismatch
	}
	if !agent.IsActive() {
		return nil, ErrAccountNotActive
	}

	requester, err := s.repo.FindAccountByIdentifier(ctx, requesterIdentifier)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	if !s.verifier.Verify(pin, requester.PINHash) {
		return nil, ErrAuthFailed
	}
	if !requester.IsActive() {
		return nil, ErrAccountNotActive
	}
	if requester.Number == agent.Number {
		return nil, ErrInvalidRecipient
	}

	request := &domain.CashInRequest{
		ID:              uuid.New(),
		RequesterNumber: requester.Number,
		AgentNumber:     agent.Number,
		Amount:          amount,
		Status:          domain.CashInStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.CreateCashInRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to queue cash-in request: %w", err)
	}

	if s.eventProducer != nil {
		event := domain.CashInRequestedEvent{
			RequestID:       request.ID,
			RequesterNumber: request.RequesterNumber,
			AgentNumber:     request.AgentNumber,
			Amount:          request.Amount,
			Timestamp:       request.CreatedAt,
		}
		if err := s.eventProducer.Publish(ctx, s.eventExchange, "cashin.requested", event); err != nil {
			log.Printf("level=warn component=engine msg=\"cash-in event publish failed\" request_id=%s err=%v", request.ID, err)
		}
	}

	return request, nil
}

// Login resolves a holder by phone number or email and verifies the PIN.
// Unknown identifiers and wrong PINs both return ErrAuthFailed.
func (s *Service) Login(ctx context.Context, identifier, pin string) (*domain.Account, error) {
	account, err := s.repo.FindAccountByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	if !s.verifier.Verify(pin, account.PINHash) {
		return nil, ErrAuthFailed
	}
	return account, nil
}

// RegisterAccountInput is the intake contract used by the external
// registration service.
type RegisterAccountInput struct {
	Name   string
	Number string
	Email  string
	PIN    string
	Role   string
}

// RegisterAccount creates a pending account with a zero balance and a hashed
// PIN. Activation is an external admin action.
func (s *Service) RegisterAccount(ctx context.Context, input RegisterAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	number := strings.TrimSpace(input.Number)
	email := strings.TrimSpace(input.Email)
	if name == "" || number == "" || email == "" || input.PIN == "" {
		return nil, errors.New("name, number, email and pin are required")
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAgent {
		return nil, fmt.Errorf("unknown account role %q", role)
	}

	pinHash, err := s.verifier.Hash(input.PIN)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:      uuid.New(),
		Name:    name,
		Number:  number,
		Email:   email,
		PINHash: pinHash,
		Role:    role,
		Status:  domain.AccountStatusPending,
		Balance: 0,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Profile returns the account owned by the given email.
func (s *Service) Profile(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindAccountByEmail(ctx, email)
}

// ListTransfers returns the caller's transfer history, newest first.
func (s *Service) ListTransfers(ctx context.Context, email string, limit int) ([]domain.Transfer, error) {
	account, err := s.repo.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransfersByNumber(ctx, account.Number, limit)
}

// GetCashInRequest fetches a queued cash-in request by id.
func (s *Service) GetCashInRequest(ctx context.Context, id uuid.UUID) (*domain.CashInRequest, error) {
	return s.repo.GetCashInRequest(ctx, id)
}

// ListCashInRequests returns queued requests in the given state for the
// external approval workflow. An empty status defaults to pending.
func (s *Service) ListCashInRequests(ctx context.Context, status string) ([]domain.CashInRequest, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		status = domain.CashInStatusPending
	}
	if status != domain.CashInStatusPending && status != domain.CashInStatusApproved && status != domain.CashInStatusRejected {
		return nil, fmt.Errorf("unknown cash-in request status %q", status)
	}
	return s.repo.ListCashInRequestsByStatus(ctx, status)
}

// consumeTransferAttempt applies the per-sender attempt limit. Limiter
// failures degrade open so a Redis outage cannot block money movement.
func (s *Service) consumeTransferAttempt(ctx context.Context, subject string) error {
	if s.rateLimiter == nil || s.rateLimitPerMinute <= 0 {
		return nil
	}
	count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, "transfer", subject, s.rateLimitPerMinute, time.Minute)
	if err != nil {
		log.Printf("level=warn component=engine msg=\"rate limiter unavailable; allowing attempt\" err=%v", err)
		return nil
	}
	if count > s.rateLimitPerMinute {
		return ErrRateLimited
	}
	return nil
}

func (s *Service) publishTransferCompleted(ctx context.Context, transfer *domain.Transfer) {
	if s.eventProducer == nil {
		return
	}
	routingKey := "transfer.completed"
	if transfer.Kind == domain.TransferKindCashOut {
		routingKey = "cashout.completed"
	}
	event := domain.TransferCompletedEvent{
		TransferID:      transfer.ID,
		Kind:            transfer.Kind,
		SenderNumber:    transfer.SenderNumber,
		RecipientNumber: transfer.RecipientNumber,
		Amount:          transfer.Amount,
		Fee:             transfer.Fee,
		Timestamp:       transfer.CreatedAt,
	}
	if err := s.eventProducer.Publish(ctx, s.eventExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=engine msg=\"transfer event publish failed\" transfer_id=%s err=%v", transfer.ID, err)
	}
}
