package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/corebank/internal/admin"
	"github.com/cradoe/corebank/internal/context"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/request"
	"github.com/cradoe/corebank/internal/response"
	"github.com/cradoe/corebank/internal/validator"
	"github.com/shopspring/decimal"
)

const maxCodeLength = 64

type adminHandler struct {
	admin      AdminService
	ledger     TransactionService
	errHandler *errHandler.ErrorHandler
}

func NewAdminHandler(admin AdminService, ledger TransactionService, errHandler *errHandler.ErrorHandler) *adminHandler {
	return &adminHandler{
		admin:      admin,
		ledger:     ledger,
		errHandler: errHandler,
	}
}

func (h *adminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.admin.ListAccounts(r.Context())
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponses(accounts), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	account, err := h.admin.GetAccount(r.Context(), id)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	actor := context.ContextGetAuthenticatedUser(r)

	err = h.admin.DeleteAccount(r.Context(), actor.ID, id)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "User deleted", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleFreezeUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		IsFrozen *bool `json:"is_frozen"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	if input.IsFrozen == nil {
		h.errHandler.FailedValidation(w, r, []string{"is_frozen is required"})
		return
	}

	actor := context.ContextGetAuthenticatedUser(r)

	account, err := h.admin.Freeze(r.Context(), actor.ID, id, *input.IsFrozen)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	message := "User account unfrozen"
	if account.IsFrozen {
		message = "User account frozen"
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), message, nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleSetUserKYC(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		KYCVerified *bool `json:"kyc_verified"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	if input.KYCVerified == nil {
		h.errHandler.FailedValidation(w, r, []string{"kyc_verified is required"})
		return
	}

	actor := context.ContextGetAuthenticatedUser(r)

	account, err := h.admin.SetKYC(r.Context(), actor.ID, id, *input.KYCVerified)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), "KYC status updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleSetUserCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		Code      *string             `json:"code"`
		Validator validator.Validator `json:"-"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Code != nil, "code is required")
	input.Validator.Checkf(input.Code == nil || validator.MaxRunes(*input.Code, maxCodeLength), "Code must not be more than %d characters", maxCodeLength)
	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	actor := context.ContextGetAuthenticatedUser(r)

	account, err := h.admin.SetCode(r.Context(), actor.ID, id, *input.Code)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), "Transaction code updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleOverwriteUserBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		Balance *decimal.Decimal `json:"balance"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	if input.Balance == nil {
		h.errHandler.FailedValidation(w, r, []string{"balance is required"})
		return
	}

	actor := context.ContextGetAuthenticatedUser(r)

	account, err := h.admin.OverwriteBalance(r.Context(), actor.ID, id, *input.Balance)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), "Balance updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandlePatchUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		FirstName     *string `json:"first_name"`
		LastName      *string `json:"last_name"`
		DateOfBirth   *string `json:"date_of_birth"`
		Street        *string `json:"street"`
		City          *string `json:"city"`
		State         *string `json:"state"`
		PostalCode    *string `json:"postal_code"`
		Email         *string `json:"email"`
		Currency      *string `json:"currency"`
		Role          *string `json:"role"`
		AccountStatus *string `json:"account_status"`
		IsFrozen      *bool   `json:"is_frozen"`
		KYCVerified   *bool   `json:"kyc_verified"`
		Code          *string `json:"code"`
	}

	// unknown keys, balance included, are rejected rather than silently ignored
	err = request.DecodeJSONStrict(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	patch := admin.AccountPatch{
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Street:        input.Street,
		City:          input.City,
		State:         input.State,
		PostalCode:    input.PostalCode,
		Email:         input.Email,
		Currency:      input.Currency,
		Role:          input.Role,
		AccountStatus: input.AccountStatus,
		IsFrozen:      input.IsFrozen,
		KYCVerified:   input.KYCVerified,
		Code:          input.Code,
	}

	if input.DateOfBirth != nil {
		var dateOfBirth time.Time
		if *input.DateOfBirth != "" {
			dateOfBirth, err = time.Parse(dateLayout, *input.DateOfBirth)
			if err != nil {
				h.errHandler.FailedValidation(w, r, []string{"Date of birth must be in YYYY-MM-DD format"})
				return
			}
		}
		patch.DateOfBirth = &dateOfBirth
	}

	actor := context.ContextGetAuthenticatedUser(r)

	account, err := h.admin.Patch(r.Context(), actor.ID, id, patch)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAdminAccountResponse(account), "User updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleUserAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	logs, err := h.admin.AuditTrail(r.Context(), id)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAuditLogResponses(logs), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleListAllTransactions(w http.ResponseWriter, r *http.Request) {
	query := retrieveUrlQueryValues(r)

	transactions, err := h.ledger.ListAll(r.Context(), ledger.Filter{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newTransactionResponses(transactions), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *adminHandler) HandleListUserTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	transactions, err := h.ledger.ListByAccount(r.Context(), id)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newTransactionResponses(transactions), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
