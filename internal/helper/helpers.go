package helper

import (
	"fmt"
	"net/http"
	"sync"
)

// ErrorReporter is satisfied by errHandler.ErrorHandler.
type ErrorReporter interface {
	ReportServerError(r *http.Request, err error)
}

type HelperRepository struct {
	baseUrl  string
	WG       *sync.WaitGroup
	reporter ErrorReporter
}

func New(baseUrl string, wg *sync.WaitGroup, reporter ErrorReporter) *HelperRepository {
	return &HelperRepository{
		baseUrl:  baseUrl,
		WG:       wg,
		reporter: reporter,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL":  h.baseUrl,
		"BankName": BankName,
	}

	return data
}

// BackgroundTask runs fn on its own goroutine. Shutdown waits on WG, so tasks
// started before the server stops still finish.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.report(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.report(r, err)
		}
	}()
}

func (h *HelperRepository) report(r *http.Request, err error) {
	if h.reporter != nil {
		h.reporter.ReportServerError(r, err)
	}
}

const BankName = "Corebank"
