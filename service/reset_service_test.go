package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendResetCode(to, code string) error {
	args := m.Called(to, code)
	return args.Error(0)
}

func newResetFixture(t *testing.T) (repository.Store, *PasswordResetService, *mockMailer) {
	t.Helper()
	store := newTestStore(t)
	seedAccount(t, store, "alice", "1000000001", dec("0"), model.AccountSavings)

	mailer := new(mockMailer)
	svc := NewPasswordResetService(store, NewMemoryResetSessionStore(), mailer)
	svc.generateCode = func() (string, error) { return "123456", nil }
	return store, svc, mailer
}

func TestPasswordResetService_FullFlow(t *testing.T) {
	ctx := context.Background()
	store, svc, mailer := newResetFixture(t)
	mailer.On("SendResetCode", "alice@example.com", "123456").Return(nil).Once()

	token, err := svc.Request(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.VerifyCode(ctx, token, "123456"))
	require.NoError(t, svc.Reset(ctx, token, "newSecret", "newSecret"))

	user, err := store.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	auth := NewAuthService(nil)
	assert.True(t, auth.CheckPasswordHash("newSecret", user.Password))

	// The session is consumed; the token cannot be replayed.
	err = svc.Reset(ctx, token, "another", "another")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	mailer.AssertExpectations(t)
}

func TestPasswordResetService_Request(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email creates no session", func(t *testing.T) {
		_, svc, mailer := newResetFixture(t)

		_, err := svc.Request(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrEmailNotFound)
		mailer.AssertNotCalled(t, "SendResetCode")
	})

	t.Run("delivery failure still hands out a token", func(t *testing.T) {
		_, svc, mailer := newResetFixture(t)
		mailer.On("SendResetCode", "alice@example.com", "123456").
			Return(errors.New("relay down")).Once()

		token, err := svc.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		// The session still works end to end.
		require.NoError(t, svc.VerifyCode(ctx, token, "123456"))
		mailer.AssertExpectations(t)
	})
}

func TestPasswordResetService_VerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong code leaves the session unverified", func(t *testing.T) {
		_, svc, mailer := newResetFixture(t)
		mailer.On("SendResetCode", mock.Anything, mock.Anything).Return(nil)

		token, err := svc.Request(ctx, "alice@example.com")
		require.NoError(t, err)

		err = svc.VerifyCode(ctx, token, "654321")
		assert.ErrorIs(t, err, ErrInvalidCode)

		// Step three stays locked.
		err = svc.Reset(ctx, token, "newSecret", "newSecret")
		assert.ErrorIs(t, err, ErrCodeNotVerified)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, svc, _ := newResetFixture(t)

		err := svc.VerifyCode(ctx, "not-a-token", "123456")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("repeated guesses are rate limited", func(t *testing.T) {
		_, svc, mailer := newResetFixture(t)
		mailer.On("SendResetCode", mock.Anything, mock.Anything).Return(nil)

		token, err := svc.Request(ctx, "alice@example.com")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			err = svc.VerifyCode(ctx, token, "000000")
			assert.ErrorIs(t, err, ErrInvalidCode)
		}
		err = svc.VerifyCode(ctx, token, "123456")
		assert.ErrorIs(t, err, ErrTooManyAttempts)
	})
}

func TestPasswordResetService_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("password mismatch leaves the old password valid", func(t *testing.T) {
		store, svc, mailer := newResetFixture(t)
		mailer.On("SendResetCode", mock.Anything, mock.Anything).Return(nil)

		before, err := store.Users().GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		token, err := svc.Request(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NoError(t, svc.VerifyCode(ctx, token, "123456"))

		err = svc.Reset(ctx, token, "newSecret", "differentSecret")
		assert.ErrorIs(t, err, ErrPasswordMismatch)

		after, err := store.Users().GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, before.Password, after.Password)
	})

	t.Run("reset without a verified code is refused", func(t *testing.T) {
		_, svc, mailer := newResetFixture(t)
		mailer.On("SendResetCode", mock.Anything, mock.Anything).Return(nil)

		token, err := svc.Request(ctx, "alice@example.com")
		require.NoError(t, err)

		err = svc.Reset(ctx, token, "newSecret", "newSecret")
		assert.ErrorIs(t, err, ErrCodeNotVerified)
	})
}

func TestMemoryResetSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryResetSessionStore()

	require.NoError(t, sessions.Put(ctx, "tok", ResetSession{Email: "a@b.c", Code: "123456"}, 20*time.Millisecond))

	session, err := sessions.Get(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, session)

	time.Sleep(30 * time.Millisecond)

	session, err = sessions.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRandomResetCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomResetCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}
