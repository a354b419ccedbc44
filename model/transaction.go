package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxDeposit     TransactionType = "Deposit"
	TxWithdrawal  TransactionType = "Withdrawal"
	TxTransferOut TransactionType = "TransferOut"
	TxTransferIn  TransactionType = "TransferIn"
	TxServiceFee  TransactionType = "ServiceFee"
)

// Transaction is an immutable audit record of one balance movement.
// Rows are only ever appended; the single exception is the cascade that
// removes them together with their account.
type Transaction struct {
	ID        int             `json:"id"`
	AccountID int             `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
