package handler

import (
	"time"

	"github.com/cradoe/corebank/internal/models"
)

// accountResponse is what clients see of an account. The password hash and the
// authorization code never leave the server.
type accountResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	DateOfBirth   string    `json:"date_of_birth,omitempty"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Email         string    `json:"email"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
	Role          string    `json:"role"`
	AccountStatus string    `json:"account_status"`
	IsFrozen      bool      `json:"is_frozen"`
	KYCVerified   bool      `json:"kyc_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newAccountResponse(a *models.Account) *accountResponse {
	res := &accountResponse{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Street:        a.Street,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Email:         a.Email,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance.StringFixed(2),
		Currency:      a.Currency,
		Role:          a.Role,
		AccountStatus: a.AccountStatus,
		IsFrozen:      a.IsFrozen,
		KYCVerified:   a.KYCVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}

	if a.DateOfBirth.Valid {
		res.DateOfBirth = a.DateOfBirth.Time.Format(dateLayout)
	}

	return res
}

// adminAccountResponse adds the fields only administrators manage.
type adminAccountResponse struct {
	*accountResponse
	HasCode bool `json:"has_code"`
}

func newAdminAccountResponse(a *models.Account) *adminAccountResponse {
	return &adminAccountResponse{
		accountResponse: newAccountResponse(a),
		HasCode:         a.Code != "",
	}
}

func newAdminAccountResponses(accounts []models.Account) []*adminAccountResponse {
	res := make([]*adminAccountResponse, 0, len(accounts))
	for i := range accounts {
		res = append(res, newAdminAccountResponse(&accounts[i]))
	}
	return res
}

type transactionResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	Narration     string    `json:"narration"`
	IBAN          string    `json:"iban,omitempty"`
	BIC           string    `json:"bic,omitempty"`
	RecipientName string    `json:"recipient_name,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newTransactionResponse(t *models.Transaction) *transactionResponse {
	return &transactionResponse{
		ID:            t.ID,
		AccountID:     t.AccountID,
		Type:          t.Type,
		Amount:        t.Amount.StringFixed(2),
		Status:        t.Status,
		Narration:     t.Narration,
		IBAN:          t.IBAN.String,
		BIC:           t.BIC.String,
		RecipientName: t.RecipientName.String,
		Reference:     t.Reference.String,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func newTransactionResponses(transactions []models.Transaction) []*transactionResponse {
	res := make([]*transactionResponse, 0, len(transactions))
	for i := range transactions {
		res = append(res, newTransactionResponse(&transactions[i]))
	}
	return res
}

type auditLogResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newAuditLogResponses(logs []models.AuditLog) []*auditLogResponse {
	res := make([]*auditLogResponse, 0, len(logs))
	for _, log := range logs {
		res = append(res, &auditLogResponse{
			ID:          log.ID,
			ActorID:     log.ActorID,
			Description: log.Description,
			CreatedAt:   log.CreatedAt,
		})
	}
	return res
}
