package service

import (
	"context"
	"testing"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedFee pins the randomized fee percentage for deterministic assertions.
func fixedFee(pct int64) func() (int64, error) {
	return func() (int64, error) { return pct, nil }
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLedgerService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("success appends exactly one deposit row", func(t *testing.T) {
		store := newTestStore(t)
		user, account := seedAccount(t, store, "alice", "1000000001", dec("50"), model.AccountSavings)
		svc := NewLedgerService(store, nil)

		updated, err := svc.Deposit(ctx, user.ID, dec("25.50"))
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(dec("75.50")), "balance was %s", updated.Balance)

		rows, err := store.Transactions().ListByAccountID(ctx, account.ID, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.TxDeposit, rows[0].Type)
		assert.True(t, rows[0].Amount.Equal(dec("25.50")))
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		store := newTestStore(t)
		user, _ := seedAccount(t, store, "alice", "1000000001", dec("50"), model.AccountSavings)
		svc := NewLedgerService(store, nil)

		_, err := svc.Deposit(ctx, user.ID, dec("0"))
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.Deposit(ctx, user.ID, dec("-5"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := newTestStore(t)
		svc := NewLedgerService(store, nil)

		_, err := svc.Deposit(ctx, 999, dec("10"))
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestLedgerService_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := newTestStore(t)
		user, account := seedAccount(t, store, "alice", "1000000001", dec("100"), model.AccountSavings)
		svc := NewLedgerService(store, nil)

		updated, err := svc.Withdraw(ctx, user.ID, dec("40"))
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(dec("60")))

		rows, err := store.Transactions().ListByAccountID(ctx, account.ID, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.TxWithdrawal, rows[0].Type)
	})

	t.Run("fixed deposit accounts reject every withdrawal", func(t *testing.T) {
		store := newTestStore(t)
		user, account := seedAccount(t, store, "bob", "1000000002", dec("1000"), model.AccountFixed)
		svc := NewLedgerService(store, nil)

		_, err := svc.Withdraw(ctx, user.ID, dec("1"))
		assert.ErrorIs(t, err, ErrFixedAccountWithdrawal)

		// Nothing changed and nothing was logged.
		after, err := store.Accounts().GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, after.Balance.Equal(dec("1000")))
		rows, err := store.Transactions().ListByAccountID(ctx, account.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("insufficient funds leaves the account untouched", func(t *testing.T) {
		store := newTestStore(t)
		user, account := seedAccount(t, store, "alice", "1000000001", dec("30"), model.AccountSavings)
		svc := NewLedgerService(store, nil)

		_, err := svc.Withdraw(ctx, user.ID, dec("30.01"))
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		after, err := store.Accounts().GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, after.Balance.Equal(dec("30")))
	})
}

func TestLedgerService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("debits amount plus fee and writes three rows", func(t *testing.T) {
		store := newTestStore(t)
		sender, senderAcc := seedAccount(t, store, "alice", "1000000001", dec("1000"), model.AccountSavings)
		_, recipientAcc := seedAccount(t, store, "bob", "1000000002", dec("0"), model.AccountSavings)

		svc := NewLedgerService(store, nil)
		svc.feePercent = fixedFee(20)

		result, err := svc.Transfer(ctx, sender.ID, recipientAcc.AccountNumber, dec("100"))
		require.NoError(t, err)

		assert.True(t, result.Fee.Equal(dec("20")))
		assert.True(t, result.Total.Equal(dec("120")))
		assert.True(t, result.SenderBalance.Equal(dec("880")))

		senderAfter, err := store.Accounts().GetByID(ctx, senderAcc.ID)
		require.NoError(t, err)
		assert.True(t, senderAfter.Balance.Equal(dec("880")))

		recipientAfter, err := store.Accounts().GetByID(ctx, recipientAcc.ID)
		require.NoError(t, err)
		assert.True(t, recipientAfter.Balance.Equal(dec("100")))

		senderRows, err := store.Transactions().ListByAccountID(ctx, senderAcc.ID, 0)
		require.NoError(t, err)
		require.Len(t, senderRows, 2)
		// Newest first: the fee row was appended after the transfer row.
		assert.Equal(t, model.TxServiceFee, senderRows[0].Type)
		assert.True(t, senderRows[0].Amount.Equal(dec("20")))
		assert.Equal(t, model.TxTransferOut, senderRows[1].Type)
		assert.True(t, senderRows[1].Amount.Equal(dec("100")))

		recipientRows, err := store.Transactions().ListByAccountID(ctx, recipientAcc.ID, 0)
		require.NoError(t, err)
		require.Len(t, recipientRows, 1)
		assert.Equal(t, model.TxTransferIn, recipientRows[0].Type)
		assert.True(t, recipientRows[0].Amount.Equal(dec("100")))
	})

	t.Run("insufficient balance reports the total including the fee", func(t *testing.T) {
		store := newTestStore(t)
		sender, senderAcc := seedAccount(t, store, "alice", "1000000001", dec("110"), model.AccountSavings)
		_, recipientAcc := seedAccount(t, store, "bob", "1000000002", dec("0"), model.AccountSavings)

		svc := NewLedgerService(store, nil)
		svc.feePercent = fixedFee(20)

		_, err := svc.Transfer(ctx, sender.ID, recipientAcc.AccountNumber, dec("100"))
		require.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Contains(t, err.Error(), "120.00")
		assert.Contains(t, err.Error(), "20%")

		// Neither side moved.
		senderAfter, _ := store.Accounts().GetByID(ctx, senderAcc.ID)
		assert.True(t, senderAfter.Balance.Equal(dec("110")))
		rows, _ := store.Transactions().ListByAccountID(ctx, senderAcc.ID, 0)
		assert.Empty(t, rows)
	})

	t.Run("transfer to own account is rejected", func(t *testing.T) {
		store := newTestStore(t)
		sender, senderAcc := seedAccount(t, store, "alice", "1000000001", dec("1000"), model.AccountSavings)

		svc := NewLedgerService(store, nil)
		svc.feePercent = fixedFee(10)

		_, err := svc.Transfer(ctx, sender.ID, senderAcc.AccountNumber, dec("10"))
		assert.ErrorIs(t, err, ErrSameAccountTransfer)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		store := newTestStore(t)
		sender, _ := seedAccount(t, store, "alice", "1000000001", dec("1000"), model.AccountSavings)

		svc := NewLedgerService(store, nil)
		svc.feePercent = fixedFee(10)

		_, err := svc.Transfer(ctx, sender.ID, "9999999999", dec("10"))
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})
}

func TestLedgerService_RandomFeePercent(t *testing.T) {
	for i := 0; i < 100; i++ {
		pct, err := randomFeePercent()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pct, int64(10))
		assert.LessOrEqual(t, pct, int64(30))
	}
}

func TestLedgerService_Dashboard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user, _ := seedAccount(t, store, "alice", "1000000001", dec("0"), model.AccountSavings)
	svc := NewLedgerService(store, nil)

	for i := 0; i < 7; i++ {
		_, err := svc.Deposit(ctx, user.ID, dec("10"))
		require.NoError(t, err)
	}

	account, recent, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(dec("70")))
	assert.Len(t, recent, 5)

	all, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}
