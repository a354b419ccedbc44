package service

import (
	"context"
	"testing"

	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_ListAccounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedAccount(t, store, "alice", "1000000001", dec("100"), model.AccountSavings)
	seedAccount(t, store, "bob", "1000000002", dec("200"), model.AccountFixed)

	svc := NewAdminService(store)
	listings, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "alice", listings[0].Owner.Username)
	assert.Empty(t, listings[0].Owner.Password, "listing must not expose password hashes")
	assert.True(t, listings[1].Account.Balance.Equal(dec("200")))
}

func TestAdminService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the owner and every transaction", func(t *testing.T) {
		store := newTestStore(t)
		user, account := seedAccount(t, store, "alice", "1000000001", dec("100"), model.AccountSavings)

		ledger := NewLedgerService(store, nil)
		_, err := ledger.Deposit(ctx, user.ID, dec("10"))
		require.NoError(t, err)

		svc := NewAdminService(store)
		require.NoError(t, svc.DeleteAccount(ctx, account.ID))

		_, err = store.Users().GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = store.Accounts().GetByID(ctx, account.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		rows, err := store.Transactions().ListByAccountID(ctx, account.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := NewAdminService(newTestStore(t))
		err := svc.DeleteAccount(ctx, 42)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
