package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"go-bank-ledger/logger"
	"go-bank-ledger/metrics"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrRecipientNotFound      = errors.New("recipient account not found")
	ErrSameAccountTransfer    = errors.New("cannot transfer money to your own account")
	ErrInsufficientFunds      = errors.New("insufficient balance")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrFixedAccountWithdrawal = errors.New("cannot withdraw from a Fixed Deposit account")
)

const (
	feePercentMin = 10
	feePercentMax = 30
)

// LedgerService implements the balance-mutating operations. Every
// operation runs as one unit of work: the balance update and its audit
// rows land together or not at all.
type LedgerService struct {
	store   repository.Store
	metrics *metrics.Metrics

	// feePercent yields the service-fee percentage for one transfer.
	// Overridable in tests; defaults to a crypto/rand draw from [10,30].
	feePercent func() (int64, error)
}

func NewLedgerService(store repository.Store, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, metrics: m, feePercent: randomFeePercent}
}

func randomFeePercent() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(feePercentMax-feePercentMin+1))
	if err != nil {
		return 0, fmt.Errorf("could not draw fee percentage: %w", err)
	}
	return n.Int64() + feePercentMin, nil
}

// TransferResult reports what a transfer actually cost the sender.
type TransferResult struct {
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	FeePercent    int64           `json:"fee_percent"`
	Total         decimal.Decimal `json:"total"`
	SenderBalance decimal.Decimal `json:"sender_balance"`
}

// Deposit credits amount to the user's account and appends a Deposit row.
func (s *LedgerService) Deposit(ctx context.Context, userID int, amount decimal.Decimal) (acct *model.Account, err error) {
	defer func() { s.metrics.ObserveLedgerOp("deposit", err) }()

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		newBalance := account.Balance.Add(amount)
		if err := tx.Accounts().UpdateBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, &model.Transaction{
			AccountID: account.ID,
			Amount:    amount,
			Type:      model.TxDeposit,
		}); err != nil {
			return err
		}

		account.Balance = newBalance
		acct = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Info("Deposit completed")
	return acct, nil
}

// Withdraw debits amount from the user's account. Fixed deposit accounts
// reject every withdrawal regardless of balance.
func (s *LedgerService) Withdraw(ctx context.Context, userID int, amount decimal.Decimal) (acct *model.Account, err error) {
	defer func() { s.metrics.ObserveLedgerOp("withdraw", err) }()

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if account.AccountType == model.AccountFixed {
			return ErrFixedAccountWithdrawal
		}
		if account.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		newBalance := account.Balance.Sub(amount)
		if err := tx.Accounts().UpdateBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, &model.Transaction{
			AccountID: account.ID,
			Amount:    amount,
			Type:      model.TxWithdrawal,
		}); err != nil {
			return err
		}

		account.Balance = newBalance
		acct = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Info("Withdrawal completed")
	return acct, nil
}

// Transfer moves amount to the account identified by recipientNumber and
// debits the sender amount plus a randomized service fee. The fee is not
// credited anywhere; it only shows up as a ServiceFee row on the sender.
func (s *LedgerService) Transfer(ctx context.Context, userID int, recipientNumber string, amount decimal.Decimal) (result *TransferResult, err error) {
	defer func() { s.metrics.ObserveLedgerOp("transfer", err) }()

	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	pct, err := s.feePercent()
	if err != nil {
		return nil, err
	}
	fee := amount.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(2)
	total := amount.Add(fee)

	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		sender, err := tx.Accounts().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if sender.AccountNumber == recipientNumber {
			return ErrSameAccountTransfer
		}

		recipient, err := tx.Accounts().GetByNumberForUpdate(ctx, recipientNumber)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecipientNotFound
			}
			return err
		}

		if sender.Balance.LessThan(total) {
			// The message must state the full cost, fee included.
			return fmt.Errorf("%w: you need %s to cover the amount plus the %d%% service fee",
				ErrInsufficientFunds, total.StringFixed(2), pct)
		}

		senderBalance := sender.Balance.Sub(total)
		if err := tx.Accounts().UpdateBalance(ctx, sender.ID, senderBalance); err != nil {
			return err
		}
		if err := tx.Accounts().UpdateBalance(ctx, recipient.ID, recipient.Balance.Add(amount)); err != nil {
			return err
		}

		for _, entry := range []model.Transaction{
			{AccountID: sender.ID, Amount: amount, Type: model.TxTransferOut},
			{AccountID: sender.ID, Amount: fee, Type: model.TxServiceFee},
			{AccountID: recipient.ID, Amount: amount, Type: model.TxTransferIn},
		} {
			entry := entry
			if err := tx.Transactions().Create(ctx, &entry); err != nil {
				return err
			}
		}

		result = &TransferResult{
			Amount:        amount,
			Fee:           fee,
			FeePercent:    pct,
			Total:         total,
			SenderBalance: senderBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     userID,
		"recipient":   recipientNumber,
		"amount":      amount,
		"fee_percent": pct,
	}).Info("Transfer completed")
	return result, nil
}

// Dashboard returns the user's account and its most recent transactions.
func (s *LedgerService) Dashboard(ctx context.Context, userID int) (*model.Account, []*model.Transaction, error) {
	account, err := s.store.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	transactions, err := s.store.Transactions().ListByAccountID(ctx, account.ID, 5)
	if err != nil {
		return nil, nil, err
	}
	return account, transactions, nil
}

// History returns the full transaction log of the user's account,
// newest first.
func (s *LedgerService) History(ctx context.Context, userID int) ([]*model.Transaction, error) {
	account, err := s.store.Accounts().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.store.Transactions().ListByAccountID(ctx, account.ID, 0)
}
