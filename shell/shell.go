// Package shell is the terminal front end. It drives the same services as
// the HTTP API through a line-based menu loop, keeping the logged-in user
// in process memory instead of a token.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-bank-ledger/model"
	"go-bank-ledger/service"

	"github.com/shopspring/decimal"
)

// ConsoleMailer prints the one-time code straight to the terminal, which
// is all the delivery a local shell session needs.
type ConsoleMailer struct {
	Out io.Writer
}

func (m *ConsoleMailer) SendResetCode(to, code string) error {
	fmt.Fprintf(m.Out, "\n[mail to %s] Your one-time reset code is: %s\n", to, code)
	return nil
}

// Shell holds the interactive session state.
type Shell struct {
	in     *bufio.Scanner
	out    io.Writer
	auth   *service.AuthService
	ledger *service.LedgerService
	reset  *service.PasswordResetService
	admin  *service.AdminService
}

func New(in io.Reader, out io.Writer, auth *service.AuthService, ledger *service.LedgerService, reset *service.PasswordResetService, admin *service.AdminService) *Shell {
	return &Shell{
		in:     bufio.NewScanner(in),
		out:    out,
		auth:   auth,
		ledger: ledger,
		reset:  reset,
		admin:  admin,
	}
}

// Run loops over the main menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "=== Welcome to Go Bank ===")
	for {
		fmt.Fprintln(s.out, "\n1) Create account\n2) Login\n3) Forgot password\n4) Exit")
		choice, ok := s.prompt("Select an option: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			s.register(ctx)
		case "2":
			s.login(ctx)
		case "3":
			s.forgotPassword(ctx)
		case "4":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid option, try again.")
		}
	}
}

func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) promptAmount(label string) (decimal.Decimal, bool) {
	text, ok := s.prompt(label)
	if !ok {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		fmt.Fprintln(s.out, "That is not a valid amount.")
		return decimal.Zero, false
	}
	return amount, true
}

func (s *Shell) register(ctx context.Context) {
	username, ok := s.prompt("Username: ")
	if !ok {
		return
	}
	email, ok := s.prompt("Email: ")
	if !ok {
		return
	}
	password, ok := s.prompt("Password: ")
	if !ok {
		return
	}
	mobile, ok := s.prompt("Mobile number: ")
	if !ok {
		return
	}

	accountType := model.AccountSavings
	kind, ok := s.prompt("Account type (1 = Savings, 2 = Fixed Deposit): ")
	if !ok {
		return
	}
	if kind == "2" {
		accountType = model.AccountFixed
	}

	deposit, ok := s.promptAmount("Initial deposit (0 for none): ")
	if !ok {
		return
	}

	user, account, err := s.auth.Register(ctx, service.RegisterParams{
		Username:       username,
		Email:          email,
		Password:       password,
		MobileNumber:   mobile,
		AccountType:    accountType,
		InitialDeposit: deposit,
	})
	if err != nil {
		fmt.Fprintf(s.out, "Registration failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Welcome, %s! Your account number is %s.\n", user.Username, account.AccountNumber)
}

func (s *Shell) login(ctx context.Context) {
	username, ok := s.prompt("Username: ")
	if !ok {
		return
	}
	password, ok := s.prompt("Password: ")
	if !ok {
		return
	}

	user, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		fmt.Fprintf(s.out, "Login failed: %v\n", err)
		return
	}

	if user.Role == model.RoleAdmin {
		fmt.Fprintf(s.out, "Logged in as administrator %s.\n", user.Username)
		s.adminMenu(ctx)
		return
	}
	fmt.Fprintf(s.out, "Logged in as %s.\n", user.Username)
	s.userMenu(ctx, user)
}

func (s *Shell) userMenu(ctx context.Context, user *model.User) {
	for {
		fmt.Fprintln(s.out, "\n1) Dashboard\n2) Deposit\n3) Withdraw\n4) Transfer\n5) Transaction history\n6) Logout")
		choice, ok := s.prompt("Select an option: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			s.dashboard(ctx, user.ID)
		case "2":
			if amount, ok := s.promptAmount("Amount to deposit: "); ok {
				if account, err := s.ledger.Deposit(ctx, user.ID, amount); err != nil {
					fmt.Fprintf(s.out, "Deposit failed: %v\n", err)
				} else {
					fmt.Fprintf(s.out, "Deposited. New balance: %s\n", account.Balance.StringFixed(2))
				}
			}
		case "3":
			if amount, ok := s.promptAmount("Amount to withdraw: "); ok {
				if account, err := s.ledger.Withdraw(ctx, user.ID, amount); err != nil {
					fmt.Fprintf(s.out, "Withdrawal failed: %v\n", err)
				} else {
					fmt.Fprintf(s.out, "Withdrawn. New balance: %s\n", account.Balance.StringFixed(2))
				}
			}
		case "4":
			s.transfer(ctx, user.ID)
		case "5":
			s.history(ctx, user.ID)
		case "6":
			fmt.Fprintln(s.out, "Logged out.")
			return
		default:
			fmt.Fprintln(s.out, "Invalid option, try again.")
		}
	}
}

func (s *Shell) dashboard(ctx context.Context, userID int) {
	account, transactions, err := s.ledger.Dashboard(ctx, userID)
	if err != nil {
		fmt.Fprintf(s.out, "Could not load dashboard: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "\nAccount %s (%s)\nBalance: %s\n",
		account.AccountNumber, account.AccountType, account.Balance.StringFixed(2))
	if len(transactions) == 0 {
		fmt.Fprintln(s.out, "No transactions yet.")
		return
	}
	fmt.Fprintln(s.out, "Recent transactions:")
	for _, tx := range transactions {
		fmt.Fprintf(s.out, "  %s  %-12s %10s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Amount.StringFixed(2))
	}
}

func (s *Shell) transfer(ctx context.Context, userID int) {
	recipient, ok := s.prompt("Recipient account number: ")
	if !ok {
		return
	}
	amount, ok := s.promptAmount("Amount to transfer: ")
	if !ok {
		return
	}

	result, err := s.ledger.Transfer(ctx, userID, recipient, amount)
	if err != nil {
		fmt.Fprintf(s.out, "Transfer failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Transferred %s with a %d%% service fee of %s (total %s).\nNew balance: %s\n",
		result.Amount.StringFixed(2), result.FeePercent, result.Fee.StringFixed(2),
		result.Total.StringFixed(2), result.SenderBalance.StringFixed(2))
}

func (s *Shell) history(ctx context.Context, userID int) {
	transactions, err := s.ledger.History(ctx, userID)
	if err != nil {
		fmt.Fprintf(s.out, "Could not load history: %v\n", err)
		return
	}
	if len(transactions) == 0 {
		fmt.Fprintln(s.out, "No transactions yet.")
		return
	}
	for _, tx := range transactions {
		fmt.Fprintf(s.out, "  %s  %-12s %10s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.Amount.StringFixed(2))
	}
}

func (s *Shell) forgotPassword(ctx context.Context) {
	email, ok := s.prompt("Email: ")
	if !ok {
		return
	}

	token, err := s.reset.Request(ctx, email)
	if err != nil {
		fmt.Fprintf(s.out, "Could not start password reset: %v\n", err)
		return
	}

	code, ok := s.prompt("Enter the one-time code: ")
	if !ok {
		return
	}
	if err := s.reset.VerifyCode(ctx, token, code); err != nil {
		fmt.Fprintf(s.out, "Verification failed: %v\n", err)
		return
	}

	password, ok := s.prompt("New password: ")
	if !ok {
		return
	}
	confirm, ok := s.prompt("Confirm new password: ")
	if !ok {
		return
	}
	if err := s.reset.Reset(ctx, token, password, confirm); err != nil {
		if errors.Is(err, service.ErrPasswordMismatch) {
			fmt.Fprintln(s.out, "Passwords do not match, start over.")
		} else {
			fmt.Fprintf(s.out, "Password reset failed: %v\n", err)
		}
		return
	}
	fmt.Fprintln(s.out, "Password updated. You can log in now.")
}

func (s *Shell) adminMenu(ctx context.Context) {
	for {
		fmt.Fprintln(s.out, "\n1) List all accounts\n2) Delete an account\n3) Logout")
		choice, ok := s.prompt("Select an option: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			s.listAccounts(ctx)
		case "2":
			s.deleteAccount(ctx)
		case "3":
			fmt.Fprintln(s.out, "Logged out.")
			return
		default:
			fmt.Fprintln(s.out, "Invalid option, try again.")
		}
	}
}

func (s *Shell) listAccounts(ctx context.Context) {
	listings, err := s.admin.ListAccounts(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not list accounts: %v\n", err)
		return
	}
	if len(listings) == 0 {
		fmt.Fprintln(s.out, "No accounts.")
		return
	}
	fmt.Fprintf(s.out, "%-5s %-12s %-15s %-8s %12s\n", "ID", "Number", "Owner", "Type", "Balance")
	for _, l := range listings {
		fmt.Fprintf(s.out, "%-5d %-12s %-15s %-8s %12s\n",
			l.Account.ID, l.Account.AccountNumber, l.Owner.Username,
			l.Account.AccountType, l.Account.Balance.StringFixed(2))
	}
}

func (s *Shell) deleteAccount(ctx context.Context) {
	text, ok := s.prompt("Account id to delete: ")
	if !ok {
		return
	}
	id, err := strconv.Atoi(text)
	if err != nil {
		fmt.Fprintln(s.out, "That is not a valid account id.")
		return
	}

	confirm, ok := s.prompt("This removes the owner and every transaction. Type 'yes' to confirm: ")
	if !ok || confirm != "yes" {
		fmt.Fprintln(s.out, "Aborted.")
		return
	}

	if err := s.admin.DeleteAccount(ctx, id); err != nil {
		fmt.Fprintf(s.out, "Delete failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Account deleted.")
}
