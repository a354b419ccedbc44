package textfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

const (
	usersFile        = "users.txt"
	accountsFile     = "accounts.txt"
	transactionsFile = "transactions.txt"
)

var (
	userHeader        = []string{"ID", "Username", "Email", "Password", "Role", "CreatedAt"}
	accountHeader     = []string{"ID", "UserID", "AccountNumber", "MobileNumber", "Balance", "AccountType", "CreatedAt"}
	transactionHeader = []string{"ID", "AccountID", "Amount", "Type", "CreatedAt"}
)

// state is the full content of the data files. Slices keep insertion
// order, which for transactions is also chronological order.
type state struct {
	users        []model.User
	accounts     []model.Account
	transactions []model.Transaction

	nextUserID        int
	nextAccountID     int
	nextTransactionID int
}

func (st *state) clone() *state {
	cp := &state{
		users:             append([]model.User(nil), st.users...),
		accounts:          append([]model.Account(nil), st.accounts...),
		transactions:      append([]model.Transaction(nil), st.transactions...),
		nextUserID:        st.nextUserID,
		nextAccountID:     st.nextAccountID,
		nextTransactionID: st.nextTransactionID,
	}
	return cp
}

func loadState(dir string) (*state, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	st := &state{nextUserID: 1, nextAccountID: 1, nextTransactionID: 1}

	userRows, err := readRecords(filepath.Join(dir, usersFile), userHeader)
	if err != nil {
		return nil, err
	}
	for _, rec := range userRows {
		u, err := parseUser(rec)
		if err != nil {
			return nil, err
		}
		st.users = append(st.users, u)
		if u.ID >= st.nextUserID {
			st.nextUserID = u.ID + 1
		}
	}

	accountRows, err := readRecords(filepath.Join(dir, accountsFile), accountHeader)
	if err != nil {
		return nil, err
	}
	for _, rec := range accountRows {
		a, err := parseAccount(rec)
		if err != nil {
			return nil, err
		}
		st.accounts = append(st.accounts, a)
		if a.ID >= st.nextAccountID {
			st.nextAccountID = a.ID + 1
		}
	}

	txRows, err := readRecords(filepath.Join(dir, transactionsFile), transactionHeader)
	if err != nil {
		return nil, err
	}
	for _, rec := range txRows {
		t, err := parseTransaction(rec)
		if err != nil {
			return nil, err
		}
		st.transactions = append(st.transactions, t)
		if t.ID >= st.nextTransactionID {
			st.nextTransactionID = t.ID + 1
		}
	}

	return st, nil
}

func writeState(dir string, st *state) error {
	userRows := make([][]string, 0, len(st.users))
	for _, u := range st.users {
		userRows = append(userRows, []string{
			strconv.Itoa(u.ID), u.Username, u.Email, u.Password, string(u.Role),
			u.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	if err := writeFileAtomic(filepath.Join(dir, usersFile), userHeader, userRows); err != nil {
		return err
	}

	accountRows := make([][]string, 0, len(st.accounts))
	for _, a := range st.accounts {
		accountRows = append(accountRows, []string{
			strconv.Itoa(a.ID), strconv.Itoa(a.UserID), a.AccountNumber, a.MobileNumber,
			a.Balance.String(), string(a.AccountType), a.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	if err := writeFileAtomic(filepath.Join(dir, accountsFile), accountHeader, accountRows); err != nil {
		return err
	}

	txRows := make([][]string, 0, len(st.transactions))
	for _, t := range st.transactions {
		txRows = append(txRows, []string{
			strconv.Itoa(t.ID), strconv.Itoa(t.AccountID), t.Amount.String(), string(t.Type),
			t.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return writeFileAtomic(filepath.Join(dir, transactionsFile), transactionHeader, txRows)
}

// readRecords returns the data rows of a CSV file, skipping the header.
// A missing file is an empty store, not an error.
func readRecords(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}

// writeFileAtomic writes header+rows to a temp file and renames it over
// the target, so readers never observe a half-written file.
func writeFileAtomic(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func parseUser(rec []string) (model.User, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.User{}, fmt.Errorf("bad user id %q: %w", rec[0], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec[5])
	if err != nil {
		return model.User{}, fmt.Errorf("bad user timestamp %q: %w", rec[5], err)
	}
	return model.User{
		ID: id, Username: rec[1], Email: rec[2], Password: rec[3],
		Role: model.Role(rec[4]), CreatedAt: createdAt,
	}, nil
}

func parseAccount(rec []string) (model.Account, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.Account{}, fmt.Errorf("bad account id %q: %w", rec[0], err)
	}
	userID, err := strconv.Atoi(rec[1])
	if err != nil {
		return model.Account{}, fmt.Errorf("bad account user id %q: %w", rec[1], err)
	}
	balance, err := decimal.NewFromString(rec[4])
	if err != nil {
		return model.Account{}, fmt.Errorf("bad account balance %q: %w", rec[4], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec[6])
	if err != nil {
		return model.Account{}, fmt.Errorf("bad account timestamp %q: %w", rec[6], err)
	}
	return model.Account{
		ID: id, UserID: userID, AccountNumber: rec[2], MobileNumber: rec[3],
		Balance: balance, AccountType: model.AccountType(rec[5]), CreatedAt: createdAt,
	}, nil
}

func parseTransaction(rec []string) (model.Transaction, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad transaction id %q: %w", rec[0], err)
	}
	accountID, err := strconv.Atoi(rec[1])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad transaction account id %q: %w", rec[1], err)
	}
	amount, err := decimal.NewFromString(rec[2])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad transaction amount %q: %w", rec[2], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec[4])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad transaction timestamp %q: %w", rec[4], err)
	}
	return model.Transaction{
		ID: id, AccountID: accountID, Amount: amount,
		Type: model.TransactionType(rec[3]), CreatedAt: createdAt,
	}, nil
}
