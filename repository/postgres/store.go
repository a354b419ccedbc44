package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go-bank-ledger/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the repositories can
// run either directly or inside a unit of work.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements repository.Store on PostgreSQL.
type Store struct {
	db *sql.DB // nil when the store is bound to a transaction
	q  querier
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Users() repository.IUserRepository {
	return &UserRepository{q: s.q}
}

func (s *Store) Accounts() repository.IAccountRepository {
	return &AccountRepository{q: s.q, locking: s.db == nil}
}

func (s *Store) Transactions() repository.ITransactionRepository {
	return &TransactionRepository{q: s.q}
}

// ExecTx runs fn inside a database transaction. Any error from fn rolls
// everything back; nested calls join the surrounding transaction.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
