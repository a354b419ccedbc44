package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go-bank-ledger/common"
	"go-bank-ledger/logger"
	"go-bank-ledger/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmailNotFound     = errors.New("email not found")
	ErrInvalidResetToken = errors.New("reset session not found or expired")
	ErrInvalidCode       = errors.New("invalid one-time code")
	ErrCodeNotVerified   = errors.New("one-time code has not been verified")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)

// resetSessionTTL bounds the whole flow; an abandoned session simply
// expires out of the store.
const resetSessionTTL = 10 * time.Minute

// PasswordResetService drives the three-step reset flow:
// Request -> VerifyCode -> Reset. Each step advances the session state
// held in the session store under an opaque token.
type PasswordResetService struct {
	store    repository.Store
	sessions IResetSessionStore
	mailer   Mailer
	limiter  *common.RateLimiter

	// generateCode is overridable in tests; defaults to a crypto/rand
	// 6-digit code.
	generateCode func() (string, error)
}

func NewPasswordResetService(store repository.Store, sessions IResetSessionStore, mailer Mailer) *PasswordResetService {
	return &PasswordResetService{
		store:        store,
		sessions:     sessions,
		mailer:       mailer,
		limiter:      common.NewRateLimiter(5, 15*time.Minute),
		generateCode: randomResetCode,
	}
}

func randomResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		return "", fmt.Errorf("could not draw reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100_000), nil
}

// Request starts the flow for email. An unknown address fails without
// creating any state. Delivery failure is logged and the step still
// succeeds, so a broken SMTP relay never strands the user.
func (s *PasswordResetService) Request(ctx context.Context, email string) (string, error) {
	if _, err := s.store.Users().GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrEmailNotFound
		}
		return "", err
	}

	code, err := s.generateCode()
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	session := ResetSession{Email: email, Code: code}
	if err := s.sessions.Put(ctx, token, session, resetSessionTTL); err != nil {
		return "", err
	}

	if err := s.mailer.SendResetCode(email, code); err != nil {
		// Degrade, don't fail: surface the code in the server log the way
		// the operator expects when the relay is down.
		logger.Log.WithFields(logrus.Fields{
			"email": email,
			"code":  code,
		}).WithError(err).Warn("Could not deliver reset code, continuing anyway")
	} else {
		logger.Log.WithField("email", email).Info("Reset code sent")
	}

	return token, nil
}

// VerifyCode compares the submitted code with the stored one by exact
// string match and marks the session verified. Attempts are rate limited
// per token so a 6-digit code cannot be brute forced.
func (s *PasswordResetService) VerifyCode(ctx context.Context, token, code string) error {
	if !s.limiter.Allow(token) {
		return ErrTooManyAttempts
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrInvalidResetToken
	}

	if session.Code != code {
		return ErrInvalidCode
	}

	session.Verified = true
	if err := s.sessions.Put(ctx, token, *session, resetSessionTTL); err != nil {
		return err
	}
	s.limiter.Reset(token)
	return nil
}

// Reset sets the new password. It is only reachable through a session
// that passed VerifyCode; anything else sends the caller back to step one.
func (s *PasswordResetService) Reset(ctx context.Context, token, password, confirm string) error {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrInvalidResetToken
	}
	if !session.Verified {
		return ErrCodeNotVerified
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	hash, err := bcryptHash(password)
	if err != nil {
		return err
	}

	user, err := s.store.Users().GetByEmail(ctx, session.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmailNotFound
		}
		return err
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		logger.Log.WithError(err).Warn("Could not delete reset session after use")
	}

	logger.Log.WithField("email", session.Email).Info("Password reset completed")
	return nil
}
