// Every admin mutation and every login leaves a row here.
// The table is polymorphic: entity + entity_id point at an account or a transaction.
package repository

import (
	"context"
	"time"

	"github.com/cradoe/corebank/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog, tx *sqlx.Tx) (*models.AuditLog, error)
	GetAllByEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error)
}

const (
	// AuditAccountEntity is used for entries about rows of the accounts table
	AuditAccountEntity = "account"

	// AuditTransactionEntity is used for entries about rows of the transactions table
	AuditTransactionEntity = "transaction"
)

type AuditRepositoryImpl struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (repo *AuditRepositoryImpl) Insert(ctx context.Context, log *models.AuditLog, tx *sqlx.Tx) (*models.AuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (id, actor_id, entity, entity_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := queryer(repo.db, tx).ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Entity,
		log.EntityId,
		log.Description,
		log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return log, nil
}

func (repo *AuditRepositoryImpl) GetAllByEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	logs := []models.AuditLog{}

	query := `
		SELECT * FROM audit_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &logs, query, entity, entityID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
