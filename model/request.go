package model

// RegisterRequest defines the payload for opening an account.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=50"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	MobileNumber   string `json:"mobile_number" validate:"required,numeric,len=10"`
	AccountType    string `json:"account_type" validate:"required,oneof=Savings Fixed"`
	InitialDeposit string `json:"initial_deposit" validate:"omitempty"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AmountRequest carries the amount for deposits and withdrawals.
// The amount travels as a string so it can be parsed as exact decimal.
type AmountRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// TransferRequest defines the payload for a peer transfer.
type TransferRequest struct {
	RecipientAccountNumber string `json:"recipient_account_number" validate:"required,numeric,len=10"`
	Amount                 string `json:"amount" validate:"required"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest carries the one-time code for step two of the flow.
type VerifyCodeRequest struct {
	ResetToken string `json:"reset_token" validate:"required,uuid4"`
	Code       string `json:"code" validate:"required,numeric,len=6"`
}

// ResetPasswordRequest completes the flow with the new password.
type ResetPasswordRequest struct {
	ResetToken      string `json:"reset_token" validate:"required,uuid4"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,min=8"`
}
