package context

import (
	"context"
	"net/http"

	"github.com/cradoe/corebank/internal/models"
)

type contextKey string

const (
	authenticatedUserContextKey   = contextKey("authenticatedUser")
	authenticationErrorContextKey = contextKey("authenticationError")
)

func ContextSetAuthenticatedUser(r *http.Request, account *models.Account) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedUserContextKey, account)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedUser(r *http.Request) *models.Account {
	account, ok := r.Context().Value(authenticatedUserContextKey).(*models.Account)
	if !ok {
		return nil
	}

	return account
}

// ContextSetAuthenticationError records why a presented token could not be resolved.
func ContextSetAuthenticationError(r *http.Request, err error) *http.Request {
	ctx := context.WithValue(r.Context(), authenticationErrorContextKey, err)
	return r.WithContext(ctx)
}

func ContextGetAuthenticationError(r *http.Request) error {
	err, ok := r.Context().Value(authenticationErrorContextKey).(error)
	if !ok {
		return nil
	}

	return err
}
