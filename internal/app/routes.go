package app

import (
	"net/http"
	"strings"

	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/handler"
	"github.com/cradoe/corebank/internal/middleware"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.ErrorHandler, app.Logger, app.Auth, app.Cache, &app.Config)
	healthHandler := handler.NewHealthCheckHandler(app.ErrorHandler, app.DB, app.Cache)
	authHandler := handler.NewAuthHandler(app.Auth, app.ErrorHandler, app.Helper, app.Mailer)
	transactionHandler := handler.NewTransactionHandler(app.Ledger, app.ErrorHandler)
	adminHandler := handler.NewAdminHandler(app.Admin, app.Ledger, app.ErrorHandler)

	authed := func(h http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedUser(h)
	}

	requireAdmin := mid.RequireRole("admin")
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return requireAdmin(h)
	}

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	// Auth
	mux.Handle("POST /auth/register", mid.RateLimit(http.HandlerFunc(authHandler.HandleAuthRegister)))
	mux.Handle("POST /auth/login", mid.RateLimit(http.HandlerFunc(authHandler.HandleAuthLogin)))
	mux.Handle("POST /auth/refresh-token", mid.RateLimit(http.HandlerFunc(authHandler.HandleAuthRefreshToken)))
	mux.Handle("GET /auth/me", authed(authHandler.HandleAuthMe))
	mux.Handle("POST /auth/logout", authed(authHandler.HandleAuthLogout))

	// Transactions
	mux.Handle("POST /transaction/withdraw", authed(transactionHandler.HandleSubmitTransaction))
	mux.Handle("GET /transaction/all", authed(transactionHandler.HandleListMyTransactions))
	mux.Handle("DELETE /transaction/delete", adminOnly(transactionHandler.HandleDeleteAllTransactions))
	mux.Handle("DELETE /transaction/{id}", adminOnly(transactionHandler.HandleDeleteTransaction))
	mux.Handle("PUT /transaction/{id}/status", adminOnly(transactionHandler.HandleUpdateTransactionStatus))
	mux.Handle("PUT /transaction/{id}/update", adminOnly(transactionHandler.HandleUpdateTransaction))

	// Admin
	mux.Handle("GET /admin/users", adminOnly(adminHandler.HandleListUsers))
	mux.Handle("GET /admin/users/{id}", adminOnly(adminHandler.HandleGetUser))
	mux.Handle("DELETE /admin/users/{id}", adminOnly(adminHandler.HandleDeleteUser))
	mux.Handle("PATCH /admin/users/{id}", adminOnly(adminHandler.HandlePatchUser))
	mux.Handle("PATCH /admin/users/{id}/freeze", adminOnly(adminHandler.HandleFreezeUser))
	mux.Handle("PATCH /admin/users/{id}/kyc", adminOnly(adminHandler.HandleSetUserKYC))
	mux.Handle("PATCH /admin/users/{id}/code", adminOnly(adminHandler.HandleSetUserCode))
	mux.Handle("PATCH /admin/users/{id}/balance", adminOnly(adminHandler.HandleOverwriteUserBalance))
	mux.Handle("GET /admin/users/{id}/audit", adminOnly(adminHandler.HandleUserAuditTrail))
	mux.Handle("GET /admin/transactions", adminOnly(adminHandler.HandleListAllTransactions))
	mux.Handle("GET /admin/transactions/{userId}", adminOnly(adminHandler.HandleListUserTransactions))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.Cors.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return mid.LogAccess(mid.RecoverPanic(corsHandler(mid.Authenticate(withFallbacks(mux, app.ErrorHandler)))))
}

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// withFallbacks answers requests no route matches with the JSON error envelope
// instead of the mux's plain text 404 and 405.
func withFallbacks(mux *http.ServeMux, errHandler *errHandler.ErrorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		var allowed []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}

			other := r.Clone(r.Context())
			other.Method = method
			if _, pattern := mux.Handler(other); pattern != "" {
				allowed = append(allowed, method)
			}
		}

		if len(allowed) == 0 {
			errHandler.NotFound(w, r)
			return
		}

		w.Header().Set("Allow", strings.Join(allowed, ", "))
		errHandler.MethodNotAllowed(w, r)
	})
}
