package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ojwalters/bankledger/internal/config"
	"github.com/ojwalters/bankledger/internal/handler"
	"github.com/ojwalters/bankledger/internal/identifier"
	"github.com/ojwalters/bankledger/internal/logging"
	"github.com/ojwalters/bankledger/internal/middleware"
	"github.com/ojwalters/bankledger/internal/repository"
	"github.com/ojwalters/bankledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("bankledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)
	ids := identifier.NewGenerator()

	ledgerSvc := service.NewLedgerService(accountRepo, transactionRepo, ids, db)
	accountSvc := service.NewAccountService(accountRepo, userRepo, ids, db)

	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	healthHandler := handler.NewHealthHandler(db)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("POST /api/v1/accounts", authed(http.HandlerFunc(accountHandler.Open)))
	mux.Handle("GET /api/v1/accounts", authed(http.HandlerFunc(accountHandler.List)))
	mux.Handle("GET /api/v1/accounts/{number}", authed(http.HandlerFunc(accountHandler.Get)))
	mux.Handle("PATCH /api/v1/accounts/{number}", authed(http.HandlerFunc(accountHandler.Update)))
	mux.Handle("DELETE /api/v1/accounts/{number}", authed(http.HandlerFunc(accountHandler.Close)))

	mux.Handle("POST /api/v1/accounts/{number}/transactions", authed(http.HandlerFunc(transactionHandler.Create)))
	mux.Handle("GET /api/v1/accounts/{number}/transactions", authed(http.HandlerFunc(transactionHandler.List)))
	mux.Handle("GET /api/v1/accounts/{number}/transactions/{id}", authed(http.HandlerFunc(transactionHandler.Get)))
	mux.Handle("DELETE /api/v1/accounts/{number}/transactions/{id}", authed(http.HandlerFunc(transactionHandler.Delete)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
