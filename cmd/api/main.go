package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/wisanuit/deptapp-sub002/internal/clock"
	"github.com/wisanuit/deptapp-sub002/internal/config"
	"github.com/wisanuit/deptapp-sub002/internal/handler"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
	"github.com/wisanuit/deptapp-sub002/internal/middleware"
	"github.com/wisanuit/deptapp-sub002/internal/repository"
	"github.com/wisanuit/deptapp-sub002/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("deptapp-ledger", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	clk := clock.System()

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	cardRepo := repository.NewCardRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	ledgerSvc := service.NewLedgerService(loanRepo, paymentRepo, policyRepo, db, clk)
	cardSvc := service.NewCardService(cardRepo, statementRepo, db, clk)
	installmentSvc := service.NewInstallmentService(installmentRepo, db, clk)
	creditSvc := service.NewCreditService(creditRepo, db)

	sweeper := service.NewSweeper(loanRepo, installmentRepo, clk)
	stopSweeper, err := sweeper.Start(context.Background(), cfg.OverdueSweepCron)
	if err != nil {
		slog.Error("failed to start overdue sweeper", "error", err)
		os.Exit(1)
	}
	defer stopSweeper()

	mux := http.NewServeMux()
	registerRoutes(mux, db, ledgerSvc, cardSvc, installmentSvc, creditSvc, policyRepo, loanRepo)

	var root http.Handler = mux
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Tracing(root)

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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func registerRoutes(
	mux *http.ServeMux,
	db *sql.DB,
	ledgerSvc *service.LedgerService,
	cardSvc *service.CardService,
	installmentSvc *service.InstallmentService,
	creditSvc *service.CreditService,
	policyRepo *repository.PolicyRepository,
	loanRepo *repository.LoanRepository,
) {
	health := handler.NewHealthHandler(db)
	payments := handler.NewPaymentHandler(ledgerSvc)
	cards := handler.NewCardHandler(cardSvc)
	installments := handler.NewInstallmentHandler(installmentSvc)
	credits := handler.NewCreditHandler(creditSvc)
	policies := handler.NewPolicyHandler(policyRepo)
	loans := handler.NewLoanHandler(loanRepo)

	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)

	mux.HandleFunc("POST /api/v1/policies", policies.Create)
	mux.HandleFunc("GET /api/v1/policies/{id}", policies.Get)
	mux.HandleFunc("DELETE /api/v1/policies/{id}", policies.Delete)
	mux.HandleFunc("POST /api/v1/policies/check-rate", policies.CheckRate)

	mux.HandleFunc("POST /api/v1/loans", loans.Create)
	mux.HandleFunc("GET /api/v1/loans/{id}", loans.Get)
	mux.HandleFunc("POST /api/v1/loans/{id}/accrual/refresh", payments.RefreshAccrual)

	mux.HandleFunc("POST /api/v1/payments", payments.Create)
	mux.HandleFunc("GET /api/v1/payments/{id}", payments.Get)
	mux.HandleFunc("DELETE /api/v1/payments/{id}", payments.Delete)

	mux.HandleFunc("POST /api/v1/cards", cards.Create)
	mux.HandleFunc("POST /api/v1/cards/{id}/transactions", cards.AddTransaction)
	mux.HandleFunc("POST /api/v1/cards/{id}/statements", cards.GenerateStatement)
	mux.HandleFunc("GET /api/v1/cards/{id}/statements", cards.ListStatements)
	mux.HandleFunc("POST /api/v1/statements/{id}/payments", cards.PayStatement)

	mux.HandleFunc("POST /api/v1/installment-plans", installments.CreatePlan)
	mux.HandleFunc("GET /api/v1/installment-plans/{id}", installments.GetPlan)
	mux.HandleFunc("POST /api/v1/installments/{id}/payments", installments.Pay)

	mux.HandleFunc("POST /api/v1/credits", credits.Create)
	mux.HandleFunc("GET /api/v1/credits/{id}", credits.Get)
	mux.HandleFunc("POST /api/v1/credits/{id}/apply", credits.Apply)
	mux.HandleFunc("POST /api/v1/credits/{id}/restore", credits.Restore)
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
