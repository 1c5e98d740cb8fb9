package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/response"
	"github.com/cradoe/corebank/internal/version"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by repository.Database and cache.Cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthCheckHandler struct {
	err   *errHandler.ErrorHandler
	db    Pinger
	cache Pinger
}

func NewHealthCheckHandler(err *errHandler.ErrorHandler, db, cache Pinger) *healthCheckHandler {
	return &healthCheckHandler{
		err:   err,
		db:    db,
		cache: cache,
	}
}

// The database is required to serve anything. Redis only backs rate limiting, which
// fails open, so a cache outage is reported without failing the check.
func (app *healthCheckHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	data := map[string]any{
		"version":  version.Get(),
		"database": ping(ctx, app.db),
		"cache":    ping(ctx, app.cache),
	}

	if data["database"] == "unavailable" {
		err := response.JSONErrorResponse(w, data, "Database is unavailable", http.StatusServiceUnavailable, nil)
		if err != nil {
			app.err.ServerError(w, r, err)
		}
		return
	}

	message := "Up and grateful"

	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		app.err.ServerError(w, r, err)
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
