package postgres

import (
	"context"

	"go-bank-ledger/logger"
	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

type TransactionRepository struct {
	q querier
}

func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": transaction.AccountID,
		"amount":     transaction.Amount,
		"type":       transaction.Type,
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (account_id, amount, type) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, transaction.AccountID, transaction.Amount, transaction.Type).
		Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID, limit int) ([]*model.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
