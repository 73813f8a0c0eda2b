package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories groups every record store used by one unit of work.
type Repositories struct {
	Marketplaces MarketplaceRepository
	UserStates   UserStateRepository
	Questions    QuestionRepository
	UnlockKeys   UnlockKeyRepository
	KeyTokens    KeyTokenRepository
	Ledger       LedgerRepository
	Events       EventRepository
}

// Store hands out repositories, either for plain reads or bound to a transaction.
type Store interface {
	Repositories() Repositories
	// WithinTx runs fn in a single transaction. Rows read through the
	// provided repositories are locked until commit; any error from fn
	// rolls back every write, ledger transfers included.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type sqlStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Repositories() Repositories {
	return newRepositories(s.db, false)
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx, true)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newRepositories(db DBTX, lock bool) Repositories {
	return Repositories{
		Marketplaces: NewMarketplaceRepository(db, lock),
		UserStates:   NewUserStateRepository(db, lock),
		Questions:    NewQuestionRepository(db, lock),
		UnlockKeys:   NewUnlockKeyRepository(db, lock),
		KeyTokens:    NewKeyTokenRepository(db),
		Ledger:       NewLedgerRepository(db, lock),
		Events:       NewEventRepository(db),
	}
}

func lockClause(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}
