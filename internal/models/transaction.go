package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID            string          `db:"id"`
	AccountID     string          `db:"account_id"`
	Type          string          `db:"type"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	Code          sql.NullString  `db:"code"`
	Narration     string          `db:"narration"`
	IBAN          sql.NullString  `db:"iban"`
	BIC           sql.NullString  `db:"bic"`
	RecipientName sql.NullString  `db:"recipient_name"`
	Reference     sql.NullString  `db:"reference"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

var TransactionTypes = []string{TransactionTypeDeposit, TransactionTypeWithdrawal}

// define possible transaction status
const (
	TransactionStatusPending  = "pending"
	TransactionStatusApproved = "approved"
	TransactionStatusDeclined = "declined"
	TransactionStatusFailed   = "failed"
)

var TransactionStatuses = []string{
	TransactionStatusPending,
	TransactionStatusApproved,
	TransactionStatusDeclined,
	TransactionStatusFailed,
}

// Routing carries the optional payment-routing details of a transaction.
type Routing struct {
	IBAN          string
	BIC           string
	RecipientName string
	Reference     string
}
