package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cradoe/corebank/internal/config"
	appContext "github.com/cradoe/corebank/internal/context"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/models"
	"github.com/cradoe/corebank/internal/response"

	"github.com/tomasen/realip"
)

// Authenticator resolves a bearer token to an account. It is satisfied by auth.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Account, error)
}

// RateLimiter is satisfied by cache.Cache.
type RateLimiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Middleware struct {
	errHandler *errHandler.ErrorHandler
	logger     *slog.Logger
	auth       Authenticator
	limiter    RateLimiter
	config     *config.Config
}

func New(errHandler *errHandler.ErrorHandler, logger *slog.Logger, auth Authenticator, limiter RateLimiter, config *config.Config) *Middleware {
	return &Middleware{
		errHandler: errHandler,
		logger:     logger,
		auth:       auth,
		limiter:    limiter,
		config:     config,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		userAttrs := slog.Group("user", "ip", ip)
		if account := appContext.ContextGetAuthenticatedUser(r); account != nil {
			userAttrs = slog.Group("user", "ip", ip, "id", account.ID)
		}
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount, "duration", time.Since(start).String())

		mid.logger.Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

var errMalformedAuthorization = errors.New("malformed authorization header")

// Authenticate attaches the account behind a valid bearer token to the request.
// A token that cannot be resolved leaves the request anonymous; the failure is kept
// in the context so RequireAuthenticatedUser can report it on protected routes.
func (mid *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) != 2 || headerParts[0] != "Bearer" {
				r = appContext.ContextSetAuthenticationError(r, errMalformedAuthorization)
				next.ServeHTTP(w, r)
				return
			}

			account, err := mid.auth.Authenticate(r.Context(), headerParts[1])
			if err != nil {
				mid.logger.Debug("bearer token not accepted", "error", err.Error(), "path", r.URL.Path)
				r = appContext.ContextSetAuthenticationError(r, err)
				next.ServeHTTP(w, r)
				return
			}

			if account != nil {
				r = appContext.ContextSetAuthenticatedUser(r, account)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedUser := appContext.ContextGetAuthenticatedUser(r)

		if authenticatedUser == nil {
			switch err := appContext.ContextGetAuthenticationError(r); {
			case err == nil:
				mid.errHandler.AuthenticationRequired(w, r)
			case errors.Is(err, errMalformedAuthorization):
				mid.errHandler.InvalidAuthenticationToken(w, r)
			default:
				mid.errHandler.Error(w, r, err)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole admits authenticated accounts holding one of roles.
func (mid *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mid.RequireAuthenticatedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticatedUser := appContext.ContextGetAuthenticatedUser(r)

			if !slices.Contains(roles, authenticatedUser.Role) {
				mid.errHandler.NotPermitted(w, r)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

// RateLimit caps requests per client IP and path in a fixed window.
// When Redis cannot be reached the request is let through.
func (mid *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mid.limiter == nil || mid.config.RateLimit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", r.URL.Path, realip.FromRequest(r))

		count, err := mid.limiter.Hit(r.Context(), key, mid.config.RateLimit.Window)
		if err != nil {
			mid.logger.Warn("rate limiter unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(mid.config.RateLimit.Requests) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(mid.config.RateLimit.Window.Seconds())))
			mid.errHandler.RateLimitExceeded(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
