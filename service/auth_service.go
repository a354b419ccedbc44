package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go-bank-ledger/common"
	"go-bank-ledger/config"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrTooManyAttempts        = errors.New("too many failed attempts, try again later")
	ErrUserAlreadyExists      = errors.New("username or email is already registered")
	ErrNegativeDeposit        = errors.New("initial deposit cannot be negative")
	errAccountNumberExhausted = errors.New("could not generate a unique account number")
)

// maxNumberAttempts bounds the account-number collision retry loop. With
// nine billion candidate numbers a second collision in a row already
// signals something badly wrong.
const maxNumberAttempts = 5

func getJwtKey() []byte {
	return []byte(config.AppConfig.JWT.SecretKey)
}

// AuthService handles registration, login and password hashing.
type AuthService struct {
	store   repository.Store
	limiter *common.RateLimiter
}

func NewAuthService(store repository.Store) *AuthService {
	return &AuthService{
		store:   store,
		limiter: common.NewRateLimiter(5, 15*time.Minute),
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return bcryptHash(password)
}

func bcryptHash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateJWT issues an access token carrying the user's id and role, so
// the front end can route admins to the admin surface.
func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := &model.AppClaims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(getJwtKey())
	if err != nil {
		logger.Log.WithError(err).WithField("username", user.Username).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

// RegisterParams collects the validated registration input.
type RegisterParams struct {
	Username       string
	Email          string
	Password       string
	MobileNumber   string
	AccountType    model.AccountType
	InitialDeposit decimal.Decimal
}

// Register creates the user and their single account as one atomic unit.
// The account number is generated, checked for uniqueness and retried on
// collision; an initial deposit greater than zero is recorded with a
// Deposit transaction.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, *model.Account, error) {
	if params.InitialDeposit.IsNegative() {
		return nil, nil, ErrNegativeDeposit
	}
	initialDeposit := params.InitialDeposit.Round(2)

	hash, err := s.HashPassword(params.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Username: params.Username,
		Email:    params.Email,
		Password: hash,
		Role:     model.RoleUser,
	}
	account := &model.Account{
		MobileNumber: params.MobileNumber,
		Balance:      initialDeposit,
		AccountType:  params.AccountType,
	}

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrUserAlreadyExists
			}
			return err
		}

		number, err := s.uniqueAccountNumber(ctx, tx)
		if err != nil {
			return err
		}
		account.UserID = user.ID
		account.AccountNumber = number
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}

		if initialDeposit.IsPositive() {
			return tx.Transactions().Create(ctx, &model.Transaction{
				AccountID: account.ID,
				Amount:    initialDeposit,
				Type:      model.TxDeposit,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Log.WithField("username", user.Username).Info("User registered")
	return user, account, nil
}

// Login verifies the password and issues a token. Attempts are rate
// limited per username to slow down credential guessing.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	if !s.limiter.Allow(username) {
		return "", nil, ErrTooManyAttempts
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}
	s.limiter.Reset(username)

	token, err := s.GenerateJWT(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate is the shell's password check: same rules as Login but
// without a token, since the shell keeps the user in process memory.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if !s.limiter.Allow(username) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	s.limiter.Reset(username)
	return user, nil
}

func (s *AuthService) uniqueAccountNumber(ctx context.Context, tx repository.Store) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number, err := randomAccountNumber()
		if err != nil {
			return "", err
		}
		exists, err := tx.Accounts().NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
		logger.Log.WithField("account_number", number).Warn("Account number collision, retrying")
	}
	return "", errAccountNumberExhausted
}

// randomAccountNumber draws a 10-digit number from crypto/rand.
func randomAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", fmt.Errorf("could not draw account number: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1_000_000_000), nil
}
