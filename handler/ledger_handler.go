package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/service"

	"github.com/shopspring/decimal"
)

// LedgerHandler holds dependencies for the money-movement endpoints.
type LedgerHandler struct {
	ledger *service.LedgerService
}

func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Dashboard returns the caller's account and recent transactions.
func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	account, transactions, err := h.ledger.Dashboard(r.Context(), userID)
	if err != nil {
		return mapLedgerError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"account":      account,
		"transactions": transactions,
	})
	return nil
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.moveMoney(w, r, h.ledger.Deposit)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.moveMoney(w, r, h.ledger.Withdraw)
}

// Transfer sends money to another account number; the sender additionally
// pays the randomized service fee reported in the response.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid amount", err)
	}

	result, err := h.ledger.Transfer(r.Context(), userID, req.RecipientAccountNumber, amount)
	if err != nil {
		return mapLedgerError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
	return nil
}

func (h *LedgerHandler) moveMoney(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID int, amount decimal.Decimal) (*model.Account, error)) *common.AppError {

	var req model.AmountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid amount", err)
	}

	account, err := op(r.Context(), userID, amount)
	if err != nil {
		return mapLedgerError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
	return nil
}

// mapLedgerError translates business errors to HTTP status codes.
func mapLedgerError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrRecipientNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSameAccountTransfer),
		errors.Is(err, service.ErrFixedAccountWithdrawal),
		errors.Is(err, service.ErrInsufficientFunds):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Could not process operation", err)
	}
}
