package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-bank-ledger/config"
	"go-bank-ledger/db"
	"go-bank-ledger/handler"
	"go-bank-ledger/logger"
	"go-bank-ledger/metrics"
	"go-bank-ledger/repository/postgres"
	"go-bank-ledger/router"
	"go-bank-ledger/service"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---
	store := postgres.NewStore(database)
	collector := metrics.New()
	mailer := service.NewSMTPMailer(&config.AppConfig)
	sessions := service.NewRedisResetSessionStore(redisClient)

	authService := service.NewAuthService(store)
	ledgerService := service.NewLedgerService(store, collector)
	resetService := service.NewPasswordResetService(store, sessions, mailer)
	adminService := service.NewAdminService(store)

	r := router.NewRouter(router.Deps{
		User:    handler.NewUserHandler(authService),
		Ledger:  handler.NewLedgerHandler(ledgerService),
		Reset:   handler.NewResetHandler(resetService),
		Admin:   handler.NewAdminHandler(adminService),
		Metrics: collector.Handler(),
	})

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
