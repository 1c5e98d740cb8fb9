package mocks

import (
	"context"

	"github.com/cradoe/corebank/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Insert(ctx context.Context, log *models.AuditLog, tx *sqlx.Tx) (*models.AuditLog, error) {
	args := m.Called(log)
	inserted, _ := args.Get(0).(*models.AuditLog)
	return inserted, args.Error(1)
}

func (m *MockAuditRepo) GetAllByEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	args := m.Called(entity, entityID)
	logs, _ := args.Get(0).([]models.AuditLog)
	return logs, args.Error(1)
}
