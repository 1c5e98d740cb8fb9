package seeders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cradoe/corebank/internal/apperr"
	"github.com/cradoe/corebank/internal/auth"
	"github.com/cradoe/corebank/internal/models"
)

const defaultTimeout = 5 * time.Second

// AccountCreator is satisfied by auth.Service.
type AccountCreator interface {
	CreateAccount(ctx context.Context, input auth.RegisterInput, role string) (*models.Account, error)
}

type Seeder struct {
	Accounts      AccountCreator
	Logger        *slog.Logger
	AdminEmail    string
	AdminPassword string
}

func New(seeder *Seeder) *Seeder {
	return &Seeder{
		Accounts:      seeder.Accounts,
		Logger:        seeder.Logger,
		AdminEmail:    seeder.AdminEmail,
		AdminPassword: seeder.AdminPassword,
	}
}

func (seeder *Seeder) Run() error {
	return seeder.seedAdmin()
}

// seedAdmin creates the bootstrap admin account once. It is skipped when no credentials are configured.
func (seeder *Seeder) seedAdmin() error {
	if seeder.AdminEmail == "" || seeder.AdminPassword == "" {
		seeder.Logger.Info("admin seeding skipped: no credentials configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	account, err := seeder.Accounts.CreateAccount(ctx, auth.RegisterInput{
		FirstName: "System",
		LastName:  "Administrator",
		Email:     seeder.AdminEmail,
		Password:  seeder.AdminPassword,
	}, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil
		}
		return err
	}

	seeder.Logger.Info("admin account seeded", "account_id", account.ID, "email", account.Email)
	return nil
}
