package service

import (
	"context"
	"errors"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/sirupsen/logrus"
)

// AdminService implements the administrative surface: a flat listing of
// every account and account deletion.
type AdminService struct {
	store repository.Store
}

func NewAdminService(store repository.Store) *AdminService {
	return &AdminService{store: store}
}

// AccountListing is one row of the admin listing, the account joined with
// its owner's identity.
type AccountListing struct {
	Account *model.Account `json:"account"`
	Owner   *model.User    `json:"owner"`
}

func (s *AdminService) ListAccounts(ctx context.Context) ([]*AccountListing, error) {
	accounts, err := s.store.Accounts().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]*AccountListing, 0, len(accounts))
	for _, account := range accounts {
		owner, err := s.store.Users().GetByID(ctx, account.UserID)
		if err != nil {
			return nil, err
		}
		owner.Password = ""
		listings = append(listings, &AccountListing{Account: account, Owner: owner})
	}
	return listings, nil
}

// DeleteAccount removes the owning user; the account and every one of its
// transactions go with it as one atomic unit.
func (s *AdminService) DeleteAccount(ctx context.Context, accountID int) error {
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().GetByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		return tx.Users().Delete(ctx, account.UserID)
	})
	if err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
	}).Info("Account deleted by admin")
	return nil
}
