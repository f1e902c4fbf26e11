package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/dictionary"
	httpapi "github.com/veribooks/books/internal/httpapi/v1"
	"github.com/veribooks/books/internal/storage/memory"
	pgstore "github.com/veribooks/books/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var srvMux http.Handler
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		// Use Postgres store when DATABASE_URL is provided
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		// Optional dev seed for compose/local
		if devSeedEnabled() {
			biz, cash, bank, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", biz, cash, bank)
				printDevSeedBanner(biz, cash, bank)
			}
		}
		srvMux = httpapi.New(pg, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		store := memory.New()
		biz, cash, bank := seedMemory(store)
		logDevSeed(logger, "memory", biz, cash, bank)
		printDevSeedBanner(biz, cash, bank)
		srvMux = httpapi.New(store, logger).Handler()
		logger.Info("storage backend: memory")
	}

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookkeeping service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeedEnabled() bool {
	dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED")))
	return dev == "1" || dev == "true" || dev == "yes"
}

// seedMemory installs a minimal business for local use: a calendar financial
// year, a journal voucher type, the curated default chart and cash/bank/sales
// accounts.
func seedMemory(store *memory.Store) (books.Business, books.Account, books.Account) {
	biz := books.Business{ID: uuid.New(), Name: "Demo Books Ltd", Currency: "GBP"}
	store.SeedBusiness(biz)

	year := time.Now().UTC().Year()
	fy := books.FinancialYear{
		ID:         uuid.New(),
		BusinessID: biz.ID,
		Name:       fmt.Sprintf("FY%d", year),
		StartDate:  time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	store.SeedFinancialYear(fy)
	store.SeedVoucherType(books.VoucherType{ID: uuid.New(), BusinessID: biz.ID, Name: "Journal", Prefix: "JRN"})

	groupIDs := map[string]uuid.UUID{}
	for _, nature := range dictionary.Natures() {
		for seq, def := range dictionary.GroupsFor(&nature) {
			g := books.AccountGroup{
				ID:                 uuid.New(),
				BusinessID:         biz.ID,
				Name:               def.Label,
				Nature:             nature,
				AffectsGrossProfit: def.AffectsGrossProfit,
				Sequence:           seq,
			}
			store.SeedGroup(g)
			groupIDs[def.Code] = g.ID
		}
	}

	cash := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: groupIDs["cash_in_hand"],
		Code: "CASH", Name: "Cash", Currency: biz.Currency,
		OpeningBalance: books.MustAmount(biz.Currency, 0), OpeningSide: books.SideDebit,
		IsCashAccount: true, Active: true,
	}
	bank := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: groupIDs["bank_accounts"],
		Code: "BANK", Name: "Current Account", Currency: biz.Currency,
		OpeningBalance: books.MustAmount(biz.Currency, 0), OpeningSide: books.SideDebit,
		IsBankAccount: true, Active: true,
	}
	sales := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: groupIDs["sales"],
		Code: "SALES", Name: "Sales", Currency: biz.Currency,
		OpeningBalance: books.MustAmount(biz.Currency, 0), OpeningSide: books.SideCredit,
		Active: true,
	}
	store.SeedAccount(cash)
	store.SeedAccount(bank)
	store.SeedAccount(sales)
	return biz, cash, bank
}

// logDevSeed emits structured logs with useful IDs
func logDevSeed(l *slog.Logger, backend string, biz books.Business, cash, bank books.Account) {
	l.Info("DEV seed ("+backend+")",
		"business_id", biz.ID.String(),
		"cash_account_id", cash.ID.String(),
		"bank_account_id", bank.ID.String(),
	)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(biz books.Business, cash, bank books.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("business_id: %s\n", biz.ID.String())
	fmt.Printf("cash_account_id: %s\n", cash.ID.String())
	fmt.Printf("bank_account_id: %s\n", bank.ID.String())
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
