package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Manager exposes the repositories sharing one database handle
type Manager struct {
	db      *bun.DB
	users   *UserRepository
	records *RecordRepository
}

var (
	_ repository.Validator          = (*Manager)(nil)
	_ repository.TransactionManager = (*Manager)(nil)
)

// NewManager wires every repository to db
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:      db,
		users:   NewUserRepository(db),
		records: NewRecordRepository(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.records == nil {
		return errors.New("repository records should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Ping runs a query round trip and returns the time it completed
func (m *Manager) Ping(ctx context.Context) (time.Time, error) {
	var one int
	if err := m.db.NewRaw("SELECT 1").Scan(ctx, &one); err != nil {
		return time.Time{}, err
	}
	return time.Now().UTC(), nil
}

func (m *Manager) DB() *bun.DB {
	return m.db
}

func (m *Manager) Users() *UserRepository {
	return m.users
}

func (m *Manager) Records() *RecordRepository {
	return m.records
}
