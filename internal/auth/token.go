package auth

import (
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/models"
	"github.com/pascaldekloe/jwt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = apperr.New(apperr.KindUnauthorized, "Invalid authentication token")

type Token struct {
	Value  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

type TokenPair struct {
	Access  Token `json:"access"`
	Refresh Token `json:"refresh"`
}

// Claims are the parts of a verified token the application relies on.
type Claims struct {
	AccountID string
	Email     string
	Role      string
	Type      string
}

// TokenIssuer signs and checks HS256 tokens. The issuer doubles as the only accepted audience.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (ti *TokenIssuer) IssuePair(account *models.Account) (*TokenPair, error) {
	access, err := ti.issue(account, TokenTypeAccess, ti.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := ti.issue(account, TokenTypeRefresh, ti.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: *access, Refresh: *refresh}, nil
}

func (ti *TokenIssuer) IssueAccess(account *models.Account) (*Token, error) {
	return ti.issue(account, TokenTypeAccess, ti.accessTTL)
}

func (ti *TokenIssuer) issue(account *models.Account, tokenType string, ttl time.Duration) (*Token, error) {
	now := ti.now()
	expiry := now.Add(ttl)

	var claims jwt.Claims
	claims.Subject = account.ID
	claims.Issued = jwt.NewNumericTime(now)
	claims.NotBefore = jwt.NewNumericTime(now)
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = ti.issuer
	claims.Audiences = []string{ti.issuer}

	claims.Set = map[string]any{
		"email": account.Email,
		"role":  account.Role,
		"typ":   tokenType,
	}

	jwtBytes, err := claims.HMACSign(jwt.HS256, ti.secret)
	if err != nil {
		return nil, err
	}

	return &Token{Value: string(jwtBytes), Expiry: expiry}, nil
}

// Verify checks signature, time window, issuer, audience and token type.
func (ti *TokenIssuer) Verify(token, tokenType string) (*Claims, error) {
	claims, err := jwt.HMACCheck([]byte(token), ti.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !claims.Valid(ti.now()) {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != ti.issuer {
		return nil, ErrInvalidToken
	}

	if !claims.AcceptAudience(ti.issuer) {
		return nil, ErrInvalidToken
	}

	typ, _ := claims.Set["typ"].(string)
	if typ != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	email, _ := claims.Set["email"].(string)
	role, _ := claims.Set["role"].(string)

	return &Claims{
		AccountID: claims.Subject,
		Email:     email,
		Role:      role,
		Type:      typ,
	}, nil
}
