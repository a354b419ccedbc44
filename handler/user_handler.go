package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/service"

	"github.com/shopspring/decimal"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Register opens a new user with their single account, recording the
// initial deposit when one is given.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = decimal.NewFromString(req.InitialDeposit)
		if err != nil {
			return common.NewAppError(http.StatusBadRequest, "Invalid initial deposit amount", err)
		}
	}

	user, account, err := h.auth.Register(r.Context(), service.RegisterParams{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		MobileNumber:   req.MobileNumber,
		AccountType:    model.AccountType(req.AccountType),
		InitialDeposit: initialDeposit,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			return common.NewAppError(http.StatusConflict, err.Error(), err)
		case errors.Is(err, service.ErrNegativeDeposit):
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not create account", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"user":    user,
		"account": account,
	})
	return nil
}

// Login checks the password and returns a token plus the role, which the
// client uses to route admins to the admin surface.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return common.NewAppError(http.StatusUnauthorized, err.Error(), err)
		case errors.Is(err, service.ErrTooManyAttempts):
			return common.NewAppError(http.StatusTooManyRequests, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not log in", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"token": token,
		"role":  string(user.Role),
	})
	return nil
}
