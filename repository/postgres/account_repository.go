package postgres

import (
	"context"
	"database/sql"
	"errors"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AccountRepository struct {
	q querier
	// locking is true when the repository runs inside ExecTx, where the
	// ForUpdate variants may take row locks.
	locking bool
}

const accountColumns = `id, user_id, account_number, mobile_number, balance, account_type, created_at`

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
		"account_type":   account.AccountType,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number, mobile_number, balance, account_type)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query,
		account.UserID, account.AccountNumber, account.MobileNumber, account.Balance, account.AccountType).
		Scan(&account.ID, &account.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, userID))
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, accountNumber))
}

func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if r.locking {
		query += ` FOR UPDATE`
	}
	return r.scanAccount(r.q.QueryRowContext(ctx, query, userID))
}

func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	if r.locking {
		query += ` FOR UPDATE`
	}
	return r.scanAccount(r.q.QueryRowContext(ctx, query, accountNumber))
}

func (r *AccountRepository) NumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`
	err := r.q.QueryRowContext(ctx, query, accountNumber).Scan(&exists)
	return exists, err
}

// GetAll retrieves every account. For admin use only.
func (r *AccountRepository) GetAll(ctx context.Context) ([]*model.Account, error) {
	logger.Log.Info("Executing query to get all accounts")

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.MobileNumber,
			&acc.Balance, &acc.AccountType, &acc.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": balance,
	})
	log.Info("Executing query to update account balance")

	res, err := r.q.ExecContext(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) scanAccount(row *sql.Row) (*model.Account, error) {
	acc := &model.Account{}
	err := row.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.MobileNumber,
		&acc.Balance, &acc.AccountType, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}
