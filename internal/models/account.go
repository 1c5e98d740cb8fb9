package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID             string          `db:"id"`
	FirstName      string          `db:"first_name"`
	LastName       string          `db:"last_name"`
	DateOfBirth    sql.NullTime    `db:"date_of_birth"`
	Street         string          `db:"street"`
	City           string          `db:"city"`
	State          string          `db:"state"`
	PostalCode     string          `db:"postal_code"`
	Email          string          `db:"email"`
	HashedPassword string          `db:"hashed_password"`
	AccountNumber  string          `db:"account_number"`
	Balance        decimal.Decimal `db:"balance"`
	Currency       string          `db:"currency"`
	Role           string          `db:"role"`
	AccountStatus  string          `db:"account_status"`
	IsFrozen       bool            `db:"is_frozen"`
	KYCVerified    bool            `db:"kyc_verified"`
	Code           string          `db:"code"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Roles is the closed set of roles an account can hold.
var Roles = []string{RoleAdmin, RoleUser}

const (
	// AccountStatusActive is the only status that can transact.
	AccountStatusActive = "active"

	// AccountStatusInactive is used for accounts that exist but have been switched off by an admin.
	AccountStatusInactive = "inactive"

	// AccountStatusSuspended is used when an account is under review.
	AccountStatusSuspended = "suspended"
)

var AccountStatuses = []string{AccountStatusActive, AccountStatusInactive, AccountStatusSuspended}

const DefaultCurrency = "USD"

// Currencies lists the currency codes an account may be held in.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD", "DEM"}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
