package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/corebank/internal/auth"
	"github.com/cradoe/corebank/internal/context"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/helper"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/request"
	"github.com/cradoe/corebank/internal/response"
	"github.com/cradoe/corebank/internal/smtp"
	"github.com/cradoe/corebank/internal/validator"

	"github.com/cradoe/gopass"
)

type authHandler struct {
	auth       AuthService
	errHandler *errHandler.ErrorHandler
	helper     *helper.HelperRepository
	mailer     smtp.MailerInterface
}

func NewAuthHandler(auth AuthService, errHandler *errHandler.ErrorHandler, helper *helper.HelperRepository, mailer smtp.MailerInterface) *authHandler {
	return &authHandler{
		auth:       auth,
		errHandler: errHandler,
		helper:     helper,
		mailer:     mailer,
	}
}

func sessionData(session *auth.Session) map[string]any {
	return map[string]any{
		"user":   newAccountResponse(session.Account),
		"tokens": session.Tokens,
	}
}

// New user registration involves input validation, a password strength check and the
// creation of the account itself. The welcome email is sent in the background.
func (h *authHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		DateOfBirth string              `json:"date_of_birth"`
		Street      string              `json:"street"`
		City        string              `json:"city"`
		State       string              `json:"state"`
		PostalCode  string              `json:"postal_code"`
		Currency    string              `json:"currency"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	// the password has to meet the minimum strength requirements before anything else is checked
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.errHandler.FailedValidation(w, r, errs)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.MaxRunes(input.FirstName, 100), "First name is too long")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(validator.MaxRunes(input.LastName, 100), "Last name is too long")

	if input.Currency != "" {
		input.Validator.Check(validator.PermittedValue(input.Currency, models.Currencies...), "Currency is not supported")
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, input.DateOfBirth)
		input.Validator.Check(err == nil, "Date of birth must be in YYYY-MM-DD format")
		input.Validator.Check(err != nil || parsed.Before(time.Now()), "Date of birth must be in the past")
		if err == nil {
			dateOfBirth = &parsed
		}
	}

	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	session, err := h.auth.Register(r.Context(), auth.RegisterInput{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Password:    input.Password,
		DateOfBirth: dateOfBirth,
		Street:      input.Street,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		Currency:    input.Currency,
	})
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	account := session.Account

	h.helper.BackgroundTask(r, func() error {
		emailData := h.helper.NewEmailData()
		emailData["Name"] = account.FullName()
		emailData["AccountNumber"] = account.AccountNumber
		emailData["Currency"] = account.Currency

		return h.mailer.Send(account.Email, emailData, "welcome.tmpl")
	})

	err = response.JSONCreatedResponse(w, sessionData(session), "Account created successfully")
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *authHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")

	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	session, err := h.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, sessionData(session), "Login successful", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *authHandler) HandleAuthRefreshToken(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string              `json:"refresh_token"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.errHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.RefreshToken), "Refresh token is required")
	if input.Validator.HasErrors() {
		h.errHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	token, err := h.auth.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, map[string]any{"access": token}, "Token refreshed", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

func (h *authHandler) HandleAuthMe(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	account, err := h.auth.Me(r.Context(), user.ID)
	if err != nil {
		h.errHandler.Error(w, r, err)
		return
	}

	err = response.JSONOkResponse(w, newAccountResponse(account), "", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}

// Sessions are stateless, so logging out only tells the client to discard its tokens.
func (h *authHandler) HandleAuthLogout(w http.ResponseWriter, r *http.Request) {
	err := response.JSONOkResponse(w, nil, "Logged out successfully", nil)
	if err != nil {
		h.errHandler.ServerError(w, r, err)
	}
}
