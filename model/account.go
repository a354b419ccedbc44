package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes normal savings accounts from fixed deposits,
// which reject every withdrawal.
type AccountType string

const (
	AccountSavings AccountType = "Savings"
	AccountFixed   AccountType = "Fixed"
)

// Account is the single bank account owned by a user. The account number
// is a 10-digit numeric string, assigned once and never changed.
type Account struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	MobileNumber  string          `json:"mobile_number"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"account_type"`
	CreatedAt     time.Time       `json:"created_at"`
}
