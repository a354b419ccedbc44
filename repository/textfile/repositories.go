package textfile

import (
	"context"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/shopspring/decimal"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.s.update(func(st *state) error {
		for _, u := range st.users {
			if u.Username == user.Username || u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		user.ID = st.nextUserID
		st.nextUserID++
		user.CreatedAt = time.Now().UTC()
		st.users = append(st.users, *user)
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	return r.s.update(func(st *state) error {
		for i := range st.users {
			if st.users[i].ID == userID {
				st.users[i].Password = passwordHash
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

// Delete removes the user, their account and all of the account's
// transactions in one pass, mirroring the cascade of the SQL schema.
func (r *UserRepository) Delete(ctx context.Context, userID int) error {
	return r.s.update(func(st *state) error {
		idx := -1
		for i := range st.users {
			if st.users[i].ID == userID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return repository.ErrNotFound
		}
		st.users = append(st.users[:idx], st.users[idx+1:]...)

		var kept []model.Account
		deletedAccounts := map[int]bool{}
		for _, a := range st.accounts {
			if a.UserID == userID {
				deletedAccounts[a.ID] = true
				continue
			}
			kept = append(kept, a)
		}
		st.accounts = kept

		var keptTx []model.Transaction
		for _, t := range st.transactions {
			if !deletedAccounts[t.AccountID] {
				keptTx = append(keptTx, t)
			}
		}
		st.transactions = keptTx
		return nil
	})
}

func (r *UserRepository) find(match func(model.User) bool) (*model.User, error) {
	var found *model.User
	err := r.s.view(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				cp := u
				found = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	return r.s.update(func(st *state) error {
		for _, a := range st.accounts {
			if a.AccountNumber == account.AccountNumber || a.UserID == account.UserID {
				return repository.ErrDuplicate
			}
		}
		account.ID = st.nextAccountID
		st.nextAccountID++
		account.CreatedAt = time.Now().UTC()
		st.accounts = append(st.accounts, *account)
		return nil
	})
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.Account, error) {
	return r.find(func(a model.Account) bool { return a.ID == id })
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int) (*model.Account, error) {
	return r.find(func(a model.Account) bool { return a.UserID == userID })
}

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return r.find(func(a model.Account) bool { return a.AccountNumber == accountNumber })
}

// The store serializes every unit of work behind one mutex, so the
// ForUpdate variants need no extra locking here.
func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int) (*model.Account, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *AccountRepository) GetByNumberForUpdate(ctx context.Context, accountNumber string) (*model.Account, error) {
	return r.GetByNumber(ctx, accountNumber)
}

func (r *AccountRepository) NumberExists(ctx context.Context, accountNumber string) (bool, error) {
	_, err := r.GetByNumber(ctx, accountNumber)
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *AccountRepository) GetAll(ctx context.Context) ([]*model.Account, error) {
	var out []*model.Account
	err := r.s.view(func(st *state) error {
		for _, a := range st.accounts {
			cp := a
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, accountID int, balance decimal.Decimal) error {
	return r.s.update(func(st *state) error {
		for i := range st.accounts {
			if st.accounts[i].ID == accountID {
				st.accounts[i].Balance = balance
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (r *AccountRepository) find(match func(model.Account) bool) (*model.Account, error) {
	var found *model.Account
	err := r.s.view(func(st *state) error {
		for _, a := range st.accounts {
			if match(a) {
				cp := a
				found = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

type TransactionRepository struct {
	s *Store
}

func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	return r.s.update(func(st *state) error {
		transaction.ID = st.nextTransactionID
		st.nextTransactionID++
		transaction.CreatedAt = time.Now().UTC()
		st.transactions = append(st.transactions, *transaction)
		return nil
	})
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID, limit int) ([]*model.Transaction, error) {
	var out []*model.Transaction
	err := r.s.view(func(st *state) error {
		// Walk backwards: file order is append order, newest last.
		for i := len(st.transactions) - 1; i >= 0; i-- {
			if st.transactions[i].AccountID != accountID {
				continue
			}
			cp := st.transactions[i]
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}
