package main

import (
	"context"
	"os"

	"go-bank-ledger/config"
	"go-bank-ledger/logger"
	"go-bank-ledger/repository/textfile"
	"go-bank-ledger/service"
	"go-bank-ledger/shell"
)

func main() {
	config.LoadConfig(".")
	logger.Init()

	dataDir := config.AppConfig.Shell.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Log.Fatalf("Error creating data directory: %v", err)
	}

	store, err := textfile.Open(dataDir)
	if err != nil {
		logger.Log.Fatalf("Error opening data files: %v", err)
	}

	authService := service.NewAuthService(store)
	ledgerService := service.NewLedgerService(store, nil)
	resetService := service.NewPasswordResetService(store,
		service.NewMemoryResetSessionStore(), &shell.ConsoleMailer{Out: os.Stdout})
	adminService := service.NewAdminService(store)

	sh := shell.New(os.Stdin, os.Stdout, authService, ledgerService, resetService, adminService)
	if err := sh.Run(context.Background()); err != nil {
		logger.Log.Fatalf("Shell exited with error: %v", err)
	}
}
