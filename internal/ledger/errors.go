package ledger

import (
	"fmt"
	"strings"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound      = apperr.New(apperr.KindNotFound, "User not found")
	ErrTransactionNotFound  = apperr.New(apperr.KindNotFound, "Transaction not found")
	ErrAccountNotActive     = apperr.New(apperr.KindInvalidState, "User account is not active")
	ErrAccountFrozen        = apperr.New(apperr.KindInvalidState, "User account is frozen")
	ErrCodeRequired         = apperr.New(apperr.KindMissingAuthorization, "Transaction code is required because KYC is not completed")
	ErrCodeInvalid          = apperr.New(apperr.KindInvalidAuthorization, "Invalid transaction code. Please contact bank support")
	ErrInsufficientFunds    = apperr.New(apperr.KindInsufficientFunds, "Insufficient funds")
	ErrAmountNotPositive    = apperr.New(apperr.KindInvalidArgument, "Transaction amount must be greater than zero")
	ErrAmountPrecision      = apperr.New(apperr.KindInvalidArgument, "Transaction amount must not have more than two decimal places")
	ErrEmptyTransactionEdit = apperr.New(apperr.KindInvalidArgument, "No transaction fields to update")
)

func errCooldown(cooldown string) error {
	return apperr.Newf(apperr.KindRateLimited, "Transactions can only be made %s apart", cooldown)
}

// validateAmount accepts positive amounts the NUMERIC(20,2) column stores exactly.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(2)) {
		return ErrAmountPrecision
	}
	return nil
}

// validateEnum rejects values outside a closed set and lists the allowed ones.
func validateEnum(value string, allowed []string, field string) error {
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}

	return apperr.New(apperr.KindInvalidArgument,
		fmt.Sprintf("Invalid %s. Allowed values: %s", field, strings.Join(allowed, ", ")))
}
