package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go-bank-ledger/common"
	"go-bank-ledger/service"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListAccounts returns every account with its owner.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	listings, err := h.admin.ListAccounts(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not list accounts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(listings)
	return nil
}

// DeleteAccount removes an account, its owner and its transaction history.
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountIDStr := r.PathValue("id")
	accountID, err := strconv.Atoi(accountIDStr)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	if err := h.admin.DeleteAccount(r.Context(), accountID); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not delete account", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
