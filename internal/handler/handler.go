package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cradoe/corebank/internal/admin"
	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/auth"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/validator"
	"github.com/shopspring/decimal"
)

// The handlers depend on these service surfaces rather than the concrete services,
// which keeps them testable with mocks.

type AuthService interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Token, error)
	Me(ctx context.Context, id string) (*models.Account, error)
}

type TransactionService interface {
	Submit(ctx context.Context, input ledger.SubmitInput) (*ledger.SubmitResult, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListAll(ctx context.Context, filter ledger.Filter) ([]models.Transaction, error)
	Update(ctx context.Context, id string, patch ledger.TransactionPatch) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type AdminService interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	DeleteAccount(ctx context.Context, actorID, id string) error
	Freeze(ctx context.Context, actorID, id string, frozen bool) (*models.Account, error)
	SetKYC(ctx context.Context, actorID, id string, verified bool) (*models.Account, error)
	SetCode(ctx context.Context, actorID, id, code string) (*models.Account, error)
	Patch(ctx context.Context, actorID, id string, patch admin.AccountPatch) (*models.Account, error)
	OverwriteBalance(ctx context.Context, actorID, id string, balance decimal.Decimal) (*models.Account, error)
	AuditTrail(ctx context.Context, id string) ([]models.AuditLog, error)
}

const dateLayout = "2006-01-02"

var errInvalidID = apperr.New(apperr.KindInvalidArgument, "Invalid id in request path")

// pathID returns the named path value when it is a well-formed UUID.
func pathID(r *http.Request, name string) (string, error) {
	id := r.PathValue(name)
	if !validator.IsUUID(id) {
		return "", errInvalidID
	}
	return id, nil
}

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	// Parse start_date if provided
	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse(dateLayout, startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	// Parse end_date if provided; the whole day is included
	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse(dateLayout, endDateStr)
		if err == nil {
			endOfDay := parsedEnd.Add(24*time.Hour - time.Nanosecond)
			queryValues.EndDate = &endOfDay
		}
	}

	// Parse pagination params
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("page")

	// Default pagination values
	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = min(parsedLimit, 100)
		}
	}
	queryValues.Limit = limit

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 1 {
			offset = (parsedOffset - 1) * limit
		}
	}
	queryValues.Offset = offset

	return queryValues
}
