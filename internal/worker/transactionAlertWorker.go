// Every committed deposit or withdrawal is announced on the transaction.completed topic.
// This worker turns those announcements into email alerts for the account holder.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/stream"
)

func (wk *Worker) TransactionAlertWorker() error {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: transactionAlertGroupID,
		Topic:   ledger.TransactionCompletedTopic,
	})
	if err != nil {
		return fmt.Errorf("creating transaction alert consumer: %w", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			wk.Logger.Info("transaction alert worker stopping")
			return nil
		default:
			event := consumer.Poll(pollTimeoutMs)
			switch e := event.(type) {
			case *kafka.Message:
				err := wk.handleTransactionCompleted(wk.Ctx, e.Value)
				if err != nil {
					wk.Logger.Error("transaction alert not sent", "partition", e.TopicPartition.String(), "error", err.Error())
				}
			case kafka.Error:
				wk.Logger.Error("kafka consumer error", "error", e.Error())
			case kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

func (wk *Worker) handleTransactionCompleted(ctx context.Context, message []byte) error {
	var event ledger.TransactionEvent

	err := json.Unmarshal(message, &event)
	if err != nil {
		return fmt.Errorf("decoding transaction event: %w", err)
	}

	account, found, err := wk.AccountRepo.GetOne(ctx, event.AccountID)
	if err != nil {
		return err
	}
	if !found {
		// the account was removed after the transaction; nobody to notify
		return nil
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = account.FullName()
		emailData["AccountNumber"] = account.AccountNumber
		emailData["Currency"] = account.Currency
		emailData["Type"] = event.Type
		emailData["Amount"] = event.Amount
		emailData["Narration"] = event.Narration
		emailData["Status"] = event.Status
		emailData["TransactionID"] = event.TransactionID
		emailData["CreatedAt"] = event.CreatedAt
		emailData["Balance"] = event.Balance

		return wk.Mailer.Send(account.Email, emailData, "transaction-alert.tmpl")
	})

	return nil
}
