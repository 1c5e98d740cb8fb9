package ledger

import (
	"encoding/json"
	"time"

	"github.com/cradoe/corebank/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionCompletedTopic carries one TransactionEvent per committed workflow transaction.
const TransactionCompletedTopic = "transaction.completed"

// Publisher is satisfied by stream.KafkaStream.
type Publisher interface {
	ProduceMessage(topic, message string) error
}

type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Narration     string          `json:"narration"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newTransactionEvent(account *models.Account, entry *models.Transaction) TransactionEvent {
	return TransactionEvent{
		TransactionID: entry.ID,
		AccountID:     account.ID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		Status:        entry.Status,
		Narration:     entry.Narration,
		Balance:       account.Balance,
		CreatedAt:     entry.CreatedAt,
	}
}

func (e TransactionEvent) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
