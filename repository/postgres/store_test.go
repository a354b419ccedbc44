package postgres

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func accountRows(id, userID int, number, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "account_number", "mobile_number", "balance", "account_type", "created_at",
	}).AddRow(id, userID, number, "5550001122", balance, "Savings", time.Now())
}

func TestStore_ExecTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when the unit of work succeeds", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET balance = $1 WHERE id = $2`)).
			WithArgs(decimal.NewFromInt(50), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.ExecTx(ctx, func(tx repository.Store) error {
			return tx.Accounts().UpdateBalance(ctx, 1, decimal.NewFromInt(50))
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the unit of work fails", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.ExecTx(ctx, func(tx repository.Store) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row locks are only taken inside a transaction", func(t *testing.T) {
		store, mock := newMockStore(t)

		// Outside ExecTx: plain select, no FOR UPDATE.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, account_number, mobile_number, balance, account_type, created_at FROM accounts WHERE user_id = $1`)).
			WithArgs(7).
			WillReturnRows(accountRows(1, 7, "1000000001", "100"))

		_, err := store.Accounts().GetByUserIDForUpdate(ctx, 7)
		require.NoError(t, err)

		// Inside ExecTx the same call appends FOR UPDATE.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, account_number, mobile_number, balance, account_type, created_at FROM accounts WHERE user_id = $1 FOR UPDATE`)).
			WithArgs(7).
			WillReturnRows(accountRows(1, 7, "1000000001", "100"))
		mock.ExpectCommit()

		err = store.ExecTx(ctx, func(tx repository.Store) error {
			_, err := tx.Accounts().GetByUserIDForUpdate(ctx, 7)
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("maps unique violations to ErrDuplicate", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id, created_at`)).
			WithArgs("alice", "alice@example.com", "hash", model.RoleUser).
			WillReturnError(&pq.Error{Code: "23505"})

		err := store.Users().Create(ctx, &model.User{
			Username: "alice", Email: "alice@example.com", Password: "hash", Role: model.RoleUser,
		})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fills id and created_at from the returning clause", func(t *testing.T) {
		store, mock := newMockStore(t)
		created := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs("alice", "alice@example.com", "hash", model.RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, created))

		user := &model.User{Username: "alice", Email: "alice@example.com", Password: "hash", Role: model.RoleUser}
		require.NoError(t, store.Users().Create(ctx, user))
		assert.Equal(t, 3, user.ID)
		assert.Equal(t, created, user.CreatedAt)
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password, role, created_at FROM users WHERE username = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "created_at"}))

	_, err := store.Users().GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Users().Delete(ctx, 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET balance = $1 WHERE id = $2`)).
		WithArgs(decimal.NewFromInt(10), 42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Accounts().UpdateBalance(ctx, 42, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionRepository_ListByAccountID(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "account_id", "amount", "type", "created_at"}).
		AddRow(2, 1, "20.00", "ServiceFee", time.Now()).
		AddRow(1, 1, "100.00", "TransferOut", time.Now())

	mock.ExpectQuery(`SELECT id, account_id, amount, type, created_at`).
		WithArgs(1, 2).
		WillReturnRows(rows)

	got, err := store.Transactions().ListByAccountID(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.TxServiceFee, got[0].Type)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(20)))
}
