// Package textfile implements repository.Store on top of flat CSV text
// files, the storage format of the terminal front end. The whole state is
// held in memory behind one mutex and flushed with a write-temp-then-rename
// so a crash mid-write never leaves a corrupt file. ExecTx stages a deep
// copy of the state and swaps it in only when the unit of work succeeds,
// giving the same all-or-nothing contract as the SQL store.
package textfile

import (
	"context"
	"fmt"
	"sync"

	"go-bank-ledger/repository"
)

type Store struct {
	mu   *sync.Mutex
	dir  string
	st   *state
	inTx bool
}

// Open loads the store from dir, creating empty data files on first use.
func Open(dir string) (*Store, error) {
	st, err := loadState(dir)
	if err != nil {
		return nil, fmt.Errorf("could not load data files: %w", err)
	}
	return &Store{mu: &sync.Mutex{}, dir: dir, st: st}, nil
}

func (s *Store) Users() repository.IUserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Accounts() repository.IAccountRepository {
	return &AccountRepository{s: s}
}

func (s *Store) Transactions() repository.ITransactionRepository {
	return &TransactionRepository{s: s}
}

// ExecTx runs fn against a staged copy of the state. Nested calls join the
// surrounding unit of work.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	txStore := &Store{mu: s.mu, dir: s.dir, st: staged, inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := writeState(s.dir, staged); err != nil {
		return fmt.Errorf("could not persist data files: %w", err)
	}
	s.st = staged
	return nil
}

// update clones, mutates and persists the state for a single write outside
// ExecTx. The live state is only replaced after a successful flush.
func (s *Store) update(fn func(*state) error) error {
	if s.inTx {
		return fn(s.st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	if err := fn(staged); err != nil {
		return err
	}
	if err := writeState(s.dir, staged); err != nil {
		return fmt.Errorf("could not persist data files: %w", err)
	}
	s.st = staged
	return nil
}

// view runs fn with the state locked for reading.
func (s *Store) view(fn func(*state) error) error {
	if s.inTx {
		return fn(s.st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
