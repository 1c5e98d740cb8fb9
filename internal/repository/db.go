package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cradoe/corebank/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

const defaultTimeout = 3 * time.Second

// ErrRecordNotFound is returned by lookups that must find a row to continue.
var ErrRecordNotFound = errors.New("record not found")

// Database interface defines available repositories
type Database interface {
	Account() AccountRepository
	Transaction() TransactionRepository
	Ledger() LedgerRepository
	Audit() AuditRepository

	Close() error
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db              *sqlx.DB
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	ledgerRepo      LedgerRepository
	auditRepo       AuditRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return NewFromDB(db), nil
}

// NewFromDB wraps an existing connection pool. Tests use it with sqlmock.
func NewFromDB(db *sqlx.DB) *DatabaseImpl {
	return &DatabaseImpl{db: db}
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) Account() AccountRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accountRepo == nil {
		d.accountRepo = NewAccountRepository(d.db)
	}
	return d.accountRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.db)
	}
	return d.transactionRepo
}

func (d *DatabaseImpl) Ledger() LedgerRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerRepo == nil {
		d.ledgerRepo = NewLedgerRepository(d.db)
	}
	return d.ledgerRepo
}

func (d *DatabaseImpl) Audit() AuditRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.auditRepo == nil {
		d.auditRepo = NewAuditRepository(d.db)
	}
	return d.auditRepo
}

// queryer picks the open transaction when there is one.
func queryer(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}

// IsUniqueViolation reports whether err is a postgres unique violation on the named constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	if pqErr.Code != "23505" {
		return false
	}

	return constraint == "" || pqErr.Constraint == constraint
}
