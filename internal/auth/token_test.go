package auth

import (
	"testing"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test_secret", "http://localhost", 15*time.Minute, 168*time.Hour)
}

var testAccount = &models.Account{
	ID:    "6f1c2a9e-4a0b-4d6f-9d7e-0a1b2c3d4e5f",
	Email: "ada@example.com",
	Role:  models.RoleUser,
}

func TestIssuePairRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.IssuePair(testAccount)
	require.NoError(t, err)

	claims, err := issuer.Verify(pair.Access.Value, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, testAccount.ID, claims.AccountID)
	assert.Equal(t, testAccount.Email, claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)

	claims, err = issuer.Verify(pair.Refresh.Value, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)

	assert.True(t, pair.Refresh.Expiry.After(pair.Access.Expiry))
}

func TestVerifyRejectsWrongType(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.IssuePair(testAccount)
	require.NoError(t, err)

	_, err = issuer.Verify(pair.Refresh.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = issuer.Verify(pair.Access.Value, TokenTypeRefresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := newTestIssuer()
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, err := issuer.IssueAccess(testAccount)
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(16 * time.Minute) }

	_, err = issuer.Verify(token.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	token, err := NewTokenIssuer("other_secret", "http://localhost", time.Minute, time.Hour).IssueAccess(testAccount)
	require.NoError(t, err)

	_, err = newTestIssuer().Verify(token.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	token, err = NewTokenIssuer("test_secret", "http://elsewhere", time.Minute, time.Hour).IssueAccess(testAccount)
	require.NoError(t, err)

	_, err = newTestIssuer().Verify(token.Value, TokenTypeAccess)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = newTestIssuer().Verify("not.a.token", TokenTypeAccess)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
