package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/cradoe/corebank/internal/app"
	seeders "github.com/cradoe/corebank/internal/seeder"
	"github.com/cradoe/corebank/internal/version"
	"github.com/cradoe/corebank/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.Close()

	seeder := seeders.New(&seeders.Seeder{
		Accounts:      application.Auth,
		Logger:        logger,
		AdminEmail:    application.Config.Admin.Email,
		AdminPassword: application.Config.Admin.Password,
	})
	if err := seeder.Run(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		AccountRepo: application.DB.Account(),
		Mailer:      application.Mailer,
		Helper:      application.Helper,
		Logger:      logger,
		Ctx:         ctx,
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := wk.TransactionAlertWorker(); err != nil {
			logger.Error("transaction alert worker stopped", "error", err.Error())
		}
	}()

	// the worker hands alerts to background tasks, so it must stop before they are drained
	application.OnShutdown(func() {
		cancel()
		<-workerDone
	})

	return application.ServeHTTP()
}
