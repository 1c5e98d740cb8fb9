package worker

import (
	"context"
	"log/slog"

	"github.com/cradoe/corebank/internal/helper"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/cradoe/corebank/internal/smtp"
	"github.com/cradoe/corebank/internal/stream"
)

const (
	// transactionAlertGroupID is used for workers that notify account holders about committed transactions
	transactionAlertGroupID = "transaction-alert-group"

	// pollTimeoutMs bounds each consumer poll so cancellation is noticed promptly
	pollTimeoutMs = 100
)

// Our workers typically need access to the database and the kafka event stream.
// Worker-specific dependencies can be passed as arguments to the worker.
type Worker struct {
	KafkaStream *stream.KafkaStream
	AccountRepo repository.AccountRepository
	Mailer      smtp.MailerInterface
	Helper      *helper.HelperRepository
	Logger      *slog.Logger
	Ctx         context.Context
}

func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		AccountRepo: wk.AccountRepo,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Logger:      wk.Logger,
		Ctx:         wk.Ctx,
	}
}
