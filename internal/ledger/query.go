package ledger

import (
	"context"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/shopspring/decimal"
)

type Filter = repository.TransactionFilter

// TransactionPatch is a partial edit of a transaction. Nil fields are left alone;
// an empty string clears an optional column.
type TransactionPatch struct {
	Type          *string
	Amount        *decimal.Decimal
	Status        *string
	Code          *string
	Narration     *string
	CreatedAt     *time.Time
	IBAN          *string
	BIC           *string
	RecipientName *string
	Reference     *string
}

// columns validates the patch and turns it into the column set understood by the store.
func (p TransactionPatch) columns() (map[string]any, error) {
	columns := map[string]any{}

	if p.Type != nil {
		err := validateEnum(*p.Type, models.TransactionTypes, "transaction type")
		if err != nil {
			return nil, err
		}
		columns["type"] = *p.Type
	}

	if p.Status != nil {
		err := validateEnum(*p.Status, models.TransactionStatuses, "transaction status")
		if err != nil {
			return nil, err
		}
		columns["status"] = *p.Status
	}

	if p.Amount != nil {
		err := validateAmount(*p.Amount)
		if err != nil {
			return nil, err
		}
		columns["amount"] = *p.Amount
	}

	if p.Narration != nil {
		columns["narration"] = *p.Narration
	}

	if p.CreatedAt != nil {
		if p.CreatedAt.IsZero() {
			return nil, apperr.New(apperr.KindInvalidArgument, "Transaction date must be a valid date")
		}
		columns["created_at"] = p.CreatedAt.UTC()
	}

	optional := map[string]*string{
		"code":           p.Code,
		"iban":           p.IBAN,
		"bic":            p.BIC,
		"recipient_name": p.RecipientName,
		"reference":      p.Reference,
	}
	for column, value := range optional {
		if value != nil {
			columns[column] = nullString(*value)
		}
	}

	if len(columns) == 0 {
		return nil, ErrEmptyTransactionEdit
	}

	return columns, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	transaction, found, err := s.transactions.GetOne(ctx, id)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrTransactionNotFound
	}
	return transaction, nil
}

// ListByAccount returns the account's transactions, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	_, found, err := s.accounts.GetOne(ctx, accountID)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrAccountNotFound
	}

	transactions, err := s.transactions.GetAllByAccountID(ctx, accountID)
	if err != nil {
		return nil, transient(err)
	}
	return transactions, nil
}

func (s *Service) ListAll(ctx context.Context, filter Filter) ([]models.Transaction, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperr.New(apperr.KindInvalidArgument, "End date must not be before start date")
	}

	transactions, err := s.transactions.GetAll(ctx, filter)
	if err != nil {
		return nil, transient(err)
	}
	return transactions, nil
}

// Update applies an administrative edit. Every field is validated before anything is written.
func (s *Service) Update(ctx context.Context, id string, patch TransactionPatch) (*models.Transaction, error) {
	columns, err := patch.columns()
	if err != nil {
		return nil, err
	}

	transaction, found, err := s.transactions.Update(ctx, id, columns)
	if err != nil {
		return nil, transient(err)
	}
	if !found {
		return nil, ErrTransactionNotFound
	}
	return transaction, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Transaction, error) {
	return s.Update(ctx, id, TransactionPatch{Status: &status})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.transactions.Delete(ctx, id)
	if err != nil {
		return transient(err)
	}
	if !deleted {
		return ErrTransactionNotFound
	}
	return nil
}

// DeleteAll removes every transaction and reports how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.transactions.DeleteAll(ctx)
	if err != nil {
		return 0, transient(err)
	}
	return count, nil
}

func transient(err error) error {
	return apperr.Wrap(apperr.KindTransient, "The request could not be completed, please try again", err)
}
