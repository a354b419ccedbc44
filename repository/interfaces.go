package repository

import (
	"context"
	"errors"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// IUserRepository defines the contract for user persistence.
type IUserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	// Delete removes the user together with their account and all of its
	// transactions.
	Delete(ctx context.Context, userID int) error
}

// IAccountRepository defines the contract for account persistence.
type IAccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int) (*model.Account, error)
	GetByUserID(ctx context.Context, userID int) (*model.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	NumberExists(ctx context.Context, accountNumber string) (bool, error)
	GetAll(ctx context.Context) ([]*model.Account, error)
	// GetByUserIDForUpdate and GetByNumberForUpdate behave like their plain
	// counterparts but, inside ExecTx on a SQL store, lock the row until
	// the unit of work completes.
	GetByUserIDForUpdate(ctx context.Context, userID int) (*model.Account, error)
	GetByNumberForUpdate(ctx context.Context, accountNumber string) (*model.Account, error)
	UpdateBalance(ctx context.Context, accountID int, balance decimal.Decimal) error
}

// ITransactionRepository defines the contract for the append-only
// transaction log.
type ITransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	// ListByAccountID returns entries newest first; limit <= 0 means all.
	ListByAccountID(ctx context.Context, accountID, limit int) ([]*model.Transaction, error)
}

// Store bundles the repositories behind one data-access contract shared by
// both front ends. ExecTx runs fn against a store view whose writes land
// all together or not at all; returning an error from fn discards every
// write made through that view.
type Store interface {
	Users() IUserRepository
	Accounts() IAccountRepository
	Transactions() ITransactionRepository
	ExecTx(ctx context.Context, fn func(Store) error) error
}
