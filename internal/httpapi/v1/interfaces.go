package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/service/posting"
	"github.com/veribooks/books/internal/service/reconcile"
	"github.com/veribooks/books/internal/service/reporting"
)

// Store is the full persistence surface the HTTP server needs. Both the
// in-memory store and the Postgres store satisfy it. The embedded service
// interfaces overlap on a few read methods; the signatures are identical so
// the embedding is legal.
type Store interface {
	posting.Repo
	posting.Writer
	reporting.Repo
	reconcile.Repo
	reconcile.Writer

	Business(ctx context.Context, businessID uuid.UUID) (books.Business, error)

	ListFinancialYears(ctx context.Context, scope books.Scope) ([]books.FinancialYear, error)
	CreateFinancialYear(ctx context.Context, y books.FinancialYear) (books.FinancialYear, error)
	UpdateFinancialYear(ctx context.Context, y books.FinancialYear) (books.FinancialYear, error)

	CreateGroup(ctx context.Context, g books.AccountGroup) (books.AccountGroup, error)

	CreateAccount(ctx context.Context, a books.Account) (books.Account, error)
	UpdateAccount(ctx context.Context, a books.Account) (books.Account, error)

	VoucherType(ctx context.Context, scope books.Scope, typeID uuid.UUID) (books.VoucherType, error)
	ListVoucherTypes(ctx context.Context, scope books.Scope) ([]books.VoucherType, error)
	CreateVoucherType(ctx context.Context, t books.VoucherType) (books.VoucherType, error)

	CreateCostCenter(ctx context.Context, c books.CostCenter) (books.CostCenter, error)

	ListVouchers(ctx context.Context, scope books.Scope) ([]books.Voucher, error)
}

// ReadyChecker is optionally implemented by stores that can probe their
// backing connection (the Postgres store pings its pool).
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
