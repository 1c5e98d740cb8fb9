package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/context"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/request"
	"github.com/cradoe/corebank/internal/response"
	"github.com/cradoe/corebank/internal/validator"
	"github.com/shopspring/decimal"
)

const maxNarrationLength = 255

type transactionHandler struct {
	ledger     TransactionService
	errHandler *errHandler.ErrorHandler
}

func NewTransactionHandler(ledger TransactionService, errHandler *errHandler.ErrorHandler) *transactionHandler {
	return &transactionHandler{
		ledger:     ledger,
		errHandler: errHandler,
	}
}

// HandleSubmitTransaction records a deposit or withdrawal on the caller's own account.
// Business rules (account state, authorization code, cooldown, funds) are enforced by the ledger.
func (h *transactionHandler) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Type          string              `json:"type"`
		Amount        *decimal.Decimal    `json:"amount"`
		Status        string              `json:"status"`
		Code          string              `json:"code"`
		Narration     string              `json:"narration"`
		IBAN          string              `json:"iban"`
		BIC           string              `json:"bic"`
		RecipientName string              `json:"recipient_name"`
		Reference     string              `json:"reference"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Type), "Transaction type is required")
	input.Validator.Check(input.Amount != nil, "Amount is required")
	input.Validator.Check(validator.NotBlank(input.Narration), "Narration is required")
	input.Validator.Checkf(validator.MaxRunes(input.Narration, maxNarrationLength), "Narration must not be more than %d characters", maxNarrationLength)

	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	result, err := h.ledger.Submit(r.Context(), ledger.SubmitInput{
		AccountID: user.ID,
		Type:      input.Type,
		Amount:    *input.Amount,
		Status:    input.Status,
		Code:      input.Code,
		Narration: input.Narration,
		Routing: models.Routing{
			IBAN:          input.IBAN,
			BIC:           input.BIC,
			RecipientName: input.RecipientName,
			Reference:     input.Reference,
		},
	})
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	data := map[string]any{
		"balance":     result.Balance.StringFixed(2),
		"transaction": newTransactionResponse(result.Transaction),
	}

	err = response.JSONCreatedResponse(w, data, "Transaction successful")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *transactionHandler) HandleListMyTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	transactions, err := h.ledger.ListByAccount(r.Context(), user.ID)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newTransactionResponses(transactions), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *transactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	count, err := h.ledger.DeleteAll(r.Context())
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, map[string]any{"deleted": count}, "All transactions deleted", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *transactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = h.ledger.Delete(r.Context(), id)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, nil, "Transaction deleted", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *transactionHandler) HandleUpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		Status    string              `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err = request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Status), "Status is required")
	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	transaction, err := h.ledger.UpdateStatus(r.Context(), id, input.Status)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newTransactionResponse(transaction), "Transaction status updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *transactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	var input struct {
		Type          *string          `json:"type"`
		Amount        *decimal.Decimal `json:"amount"`
		Status        *string          `json:"status"`
		Code          *string          `json:"code"`
		Narration     *string          `json:"narration"`
		CreatedAt     *string          `json:"created_at"`
		IBAN          *string          `json:"iban"`
		BIC           *string          `json:"bic"`
		RecipientName *string          `json:"recipient_name"`
		Reference     *string          `json:"reference"`
	}

	err = request.DecodeJSONStrict(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	patch := ledger.TransactionPatch{
		Type:          input.Type,
		Amount:        input.Amount,
		Status:        input.Status,
		Code:          input.Code,
		Narration:     input.Narration,
		IBAN:          input.IBAN,
		BIC:           input.BIC,
		RecipientName: input.RecipientName,
		Reference:     input.Reference,
	}

	if input.CreatedAt != nil {
		createdAt, err := parseTimestamp(*input.CreatedAt)
		if err != nil {
			h.errHandler.Error(w, r, err)
			return
		}
		patch.CreatedAt = &createdAt
	}

	transaction, err := h.ledger.Update(r.Context(), id, patch)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newTransactionResponse(transaction), "Transaction updated", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// parseTimestamp accepts RFC 3339 timestamps or plain dates.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, dateLayout} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.New(apperr.KindInvalidArgument, "Transaction date must be an RFC 3339 timestamp or YYYY-MM-DD")
}
