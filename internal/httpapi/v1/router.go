// Package v1 wires the HTTP surface of the bookkeeping service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/veribooks/books/internal/service/posting"
	"github.com/veribooks/books/internal/service/reconcile"
	"github.com/veribooks/books/internal/service/reporting"
)

// Server wires handlers and middleware using Chi.
// It composes the store with the posting, reporting and reconciliation services.
type Server struct {
	store     Store
	posting   posting.Service
	reporting reporting.Service
	reconcile reconcile.Service
	log       *slog.Logger
	rt        *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	reportingSvc := reporting.New(store)
	s := &Server{
		store:     store,
		posting:   posting.New(store, store),
		reporting: reportingSvc,
		reconcile: reconcile.New(store, store, reportingSvc),
		rt:        r,
		log:       logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Account groups
	s.rt.Post("/v1/account-groups", s.postGroup)
	s.rt.Get("/v1/account-groups", s.listGroups)
	s.rt.Get("/v1/account-groups/{id}", s.getGroup)
	// Accounts
	s.rt.Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts", s.listAccounts)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deactivateAccount)
	s.rt.Get("/v1/accounts/{id}/balance", s.getAccountBalance)
	s.rt.Get("/v1/accounts/{id}/ledger", s.getAccountLedger)
	// Vouchers
	s.rt.Post("/v1/vouchers", s.postVoucher)
	s.rt.Get("/v1/vouchers", s.listVouchers)
	s.rt.Get("/v1/vouchers/{id}", s.getVoucher)
	s.rt.Patch("/v1/vouchers/{id}", s.updateVoucher)
	s.rt.Delete("/v1/vouchers/{id}", s.deleteVoucher)
	s.rt.Post("/v1/vouchers/{id}/post", s.postVoucherEntries)
	s.rt.Post("/v1/vouchers/{id}/unpost", s.unpostVoucherEntries)
	// Voucher types
	s.rt.Post("/v1/voucher-types", s.postVoucherType)
	s.rt.Get("/v1/voucher-types", s.listVoucherTypes)
	// Reports
	s.rt.Get("/v1/trial-balance", s.trialBalance)
	s.rt.Get("/v1/day-book", s.dayBook)
	s.rt.Get("/v1/cash-book", s.cashBook)
	// Financial years
	s.rt.Post("/v1/financial-years", s.postFinancialYear)
	s.rt.Get("/v1/financial-years", s.listFinancialYears)
	s.rt.Post("/v1/financial-years/{id}/lock", s.lockFinancialYear)
	s.rt.Post("/v1/financial-years/{id}/unlock", s.unlockFinancialYear)
	// Cost centers
	s.rt.Post("/v1/cost-centers", s.postCostCenter)
	s.rt.Get("/v1/cost-centers", s.listCostCenters)
	s.rt.Get("/v1/cost-centers/totals", s.costCenterTotals)
	// Reconciliations
	s.rt.Post("/v1/reconciliations", s.postReconciliation)
	s.rt.Get("/v1/reconciliations/{id}", s.getReconciliation)
	s.rt.Post("/v1/reconciliations/{id}/items", s.addReconciliationItem)
	s.rt.Delete("/v1/reconciliations/{id}/items/{entryID}", s.removeReconciliationItem)
	s.rt.Post("/v1/reconciliations/{id}/items/{entryID}/reconcile", s.reconcileItem)
	s.rt.Post("/v1/reconciliations/{id}/items/{entryID}/unreconcile", s.unreconcileItem)
	s.rt.Post("/v1/reconciliations/{id}/complete", s.completeReconciliation)
	s.rt.Post("/v1/reconciliations/{id}/reopen", s.reopenReconciliation)
	// Dictionary (read-only defaults)
	s.rt.Get("/v1/dictionary/groups", s.getGroupsDictionary)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
