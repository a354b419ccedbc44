package router

import (
	"net/http"

	"go-bank-ledger/handler"
)

// Deps bundles everything the router mounts.
type Deps struct {
	User    *handler.UserHandler
	Ledger  *handler.LedgerHandler
	Reset   *handler.ResetHandler
	Admin   *handler.AdminHandler
	Metrics http.Handler
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(deps.User.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(deps.User.Login))

	mux.Handle("POST /password/forgot", handler.ErrorHandlingMiddleware(deps.Reset.ForgotPassword))
	mux.Handle("POST /password/verify", handler.ErrorHandlingMiddleware(deps.Reset.VerifyCode))
	mux.Handle("POST /password/reset", handler.ErrorHandlingMiddleware(deps.Reset.ResetPassword))

	authed := http.NewServeMux()
	authed.Handle("GET /api/dashboard", handler.ErrorHandlingMiddleware(deps.Ledger.Dashboard))
	authed.Handle("POST /api/deposit", handler.ErrorHandlingMiddleware(deps.Ledger.Deposit))
	authed.Handle("POST /api/withdraw", handler.ErrorHandlingMiddleware(deps.Ledger.Withdraw))
	authed.Handle("POST /api/transfer", handler.ErrorHandlingMiddleware(deps.Ledger.Transfer))

	admin := http.NewServeMux()
	admin.Handle("GET /api/admin/accounts", handler.ErrorHandlingMiddleware(deps.Admin.ListAccounts))
	admin.Handle("DELETE /api/admin/accounts/{id}", handler.ErrorHandlingMiddleware(deps.Admin.DeleteAccount))

	authed.Handle("/api/admin/", handler.AdminMiddleware(admin))
	mux.Handle("/api/", handler.AuthMiddleware(authed))

	return mux
}
