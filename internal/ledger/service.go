// Package ledger implements the transaction workflow and the ledger operations around it.
package ledger

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	DefaultCooldown = 3 * time.Minute
	DefaultTimeout  = 5 * time.Second
)

// AccountReader is the slice of the account store the workflow needs.
type AccountReader interface {
	GetOne(ctx context.Context, id string) (*models.Account, bool, error)
}

type Options struct {
	Cooldown time.Duration
	Timeout  time.Duration
	Now      func() time.Time
}

type Service struct {
	accounts     AccountReader
	transactions repository.TransactionRepository
	ledger       repository.LedgerRepository
	publisher    Publisher
	logger       *slog.Logger

	cooldown time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func NewService(accounts AccountReader, transactions repository.TransactionRepository, ledger repository.LedgerRepository, publisher Publisher, logger *slog.Logger, opts Options) *Service {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		accounts:     accounts,
		transactions: transactions,
		ledger:       ledger,
		publisher:    publisher,
		logger:       logger,
		cooldown:     opts.Cooldown,
		timeout:      opts.Timeout,
		now:          opts.Now,
	}
}

type SubmitInput struct {
	AccountID string
	Type      string
	Amount    decimal.Decimal
	Status    string
	Code      string
	Narration string
	Routing   models.Routing
}

type SubmitResult struct {
	Balance     decimal.Decimal
	Transaction *models.Transaction
}

// Submit validates a deposit or withdrawal against the account and records it.
// The balance write and the transaction insert commit together or not at all.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, found, err := s.accounts.GetOne(ctx, input.AccountID)
	if err != nil {
		return nil, s.abort(input, err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}

	err = checkAccountState(account)
	if err != nil {
		return nil, err
	}

	err = checkAuthorizationCode(account, input.Code)
	if err != nil {
		return nil, err
	}

	latest, found, err := s.transactions.Latest(ctx, account.ID, nil)
	if err != nil {
		return nil, s.abort(input, err)
	}
	if found {
		err = s.checkCooldown(latest)
		if err != nil {
			return nil, err
		}
	}

	err = validateEnum(input.Type, models.TransactionTypes, "transaction type")
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.TransactionStatusPending
	}
	err = validateEnum(status, models.TransactionStatuses, "transaction status")
	if err != nil {
		return nil, err
	}

	err = validateAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	updated, entry, err := s.ledger.Apply(ctx, account.ID, func(locked *models.Account, latest *models.Transaction) (*models.Transaction, error) {
		// state may have changed since the unlocked reads above
		err := checkAccountState(locked)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			err = s.checkCooldown(latest)
			if err != nil {
				return nil, err
			}
		}

		switch input.Type {
		case models.TransactionTypeDeposit:
			locked.Balance = locked.Balance.Add(input.Amount)
		case models.TransactionTypeWithdrawal:
			if locked.Balance.LessThan(input.Amount) {
				return nil, ErrInsufficientFunds
			}
			locked.Balance = locked.Balance.Sub(input.Amount)
		}

		now := s.now().UTC()

		return &models.Transaction{
			Type:          input.Type,
			Amount:        input.Amount,
			Status:        status,
			Code:          nullString(input.Code),
			Narration:     input.Narration,
			IBAN:          nullString(input.Routing.IBAN),
			BIC:           nullString(input.Routing.BIC),
			RecipientName: nullString(input.Routing.RecipientName),
			Reference:     nullString(input.Routing.Reference),
			CreatedAt:     now,
			UpdatedAt:     now,
		}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, s.abort(input, err)
	}

	s.publish(updated, entry)

	return &SubmitResult{
		Balance:     updated.Balance,
		Transaction: entry,
	}, nil
}

// abort logs a failed submission. Errors that already carry a kind pass through untouched;
// anything else came from the store or the context and is reported as transient.
func (s *Service) abort(input SubmitInput, err error) error {
	s.logger.Error("transaction aborted",
		"account_id", input.AccountID,
		"type", input.Type,
		"amount", input.Amount.String(),
		"error", err.Error(),
	)

	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}

	return apperr.Wrap(apperr.KindTransient, "The transaction could not be completed, please try again", err)
}

func (s *Service) publish(account *models.Account, entry *models.Transaction) {
	if s.publisher == nil {
		return
	}

	message, err := newTransactionEvent(account, entry).Encode()
	if err == nil {
		err = s.publisher.ProduceMessage(TransactionCompletedTopic, message)
	}
	if err != nil {
		s.logger.Warn("transaction event not published", "transaction_id", entry.ID, "error", err.Error())
	}
}

func (s *Service) checkCooldown(latest *models.Transaction) error {
	elapsed := s.now().Sub(latest.CreatedAt)
	if elapsed < s.cooldown {
		return errCooldown(humanizeDuration(s.cooldown))
	}
	return nil
}

func checkAccountState(account *models.Account) error {
	if account.AccountStatus != models.AccountStatusActive {
		return ErrAccountNotActive
	}
	if account.IsFrozen {
		return ErrAccountFrozen
	}
	return nil
}

// checkAuthorizationCode only applies to accounts that have not completed KYC.
func checkAuthorizationCode(account *models.Account, code string) error {
	if account.KYCVerified {
		return nil
	}
	if code == "" {
		return ErrCodeRequired
	}
	if account.Code == "" || subtle.ConstantTimeCompare([]byte(account.Code), []byte(code)) != 1 {
		return ErrCodeInvalid
	}
	return nil
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d >= time.Hour:
		return pluralize(int(d/time.Hour), "hour")
	case d%time.Minute == 0 && d >= time.Minute:
		return pluralize(int(d/time.Minute), "minute")
	case d%time.Second == 0 && d >= time.Second:
		return pluralize(int(d/time.Second), "second")
	}
	return d.String()
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
