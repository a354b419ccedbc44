package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/service"
)

// ResetHandler exposes the three password-reset steps. The reset token
// returned by ForgotPassword identifies the session through the two
// following steps.
type ResetHandler struct {
	reset *service.PasswordResetService
}

func NewResetHandler(reset *service.PasswordResetService) *ResetHandler {
	return &ResetHandler{reset: reset}
}

// ForgotPassword is step one: generate and deliver a one-time code.
func (h *ResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	token, err := h.reset.Request(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not start password reset", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"reset_token": token,
		"message":     "A one-time code has been sent to your email",
	})
	return nil
}

// VerifyCode is step two: check the submitted code.
func (h *ResetHandler) VerifyCode(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.VerifyCodeRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.reset.VerifyCode(r.Context(), req.ResetToken, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, service.ErrInvalidResetToken):
			return common.NewAppError(http.StatusForbidden, err.Error(), err)
		case errors.Is(err, service.ErrTooManyAttempts):
			return common.NewAppError(http.StatusTooManyRequests, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not verify code", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Code verified"})
	return nil
}

// ResetPassword is step three, reachable only after a verified step two.
func (h *ResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.reset.Reset(r.Context(), req.ResetToken, req.Password, req.ConfirmPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrCodeNotVerified):
			return common.NewAppError(http.StatusForbidden, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not reset password", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset successfully, please log in"})
	return nil
}
