package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
	"github.com/veribooks/books/internal/service/posting"
	"github.com/veribooks/books/internal/service/reporting"
	"github.com/veribooks/books/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     Service
	posting posting.Service
	scope   books.Scope
	year    books.FinancialYear
	vtype   books.VoucherType
	bank    books.Account
	sales   books.Account
	rent    books.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	biz := books.Business{ID: uuid.New(), Name: "Test Co", Currency: "GBP"}
	store.SeedBusiness(biz)
	year := books.FinancialYear{
		ID: uuid.New(), BusinessID: biz.ID, Name: "FY2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	store.SeedFinancialYear(year)
	vtype := books.VoucherType{ID: uuid.New(), BusinessID: biz.ID, Name: "Bank", Prefix: "BNK"}
	store.SeedVoucherType(vtype)
	assets := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Bank Accounts", Nature: books.NatureAssets}
	income := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Sales", Nature: books.NatureIncome}
	expense := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Indirect Expenses", Nature: books.NatureExpense}
	store.SeedGroup(assets)
	store.SeedGroup(income)
	store.SeedGroup(expense)
	bank := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: assets.ID, Code: "BANK", Name: "Current Account",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 0), OpeningSide: books.SideDebit,
		IsBankAccount: true, Active: true,
	}
	sales := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: income.ID, Code: "SALES", Name: "Sales",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 0), OpeningSide: books.SideCredit,
		Active: true,
	}
	rent := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: expense.ID, Code: "RENT", Name: "Rent",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 0), OpeningSide: books.SideDebit,
		Active: true,
	}
	store.SeedAccount(bank)
	store.SeedAccount(sales)
	store.SeedAccount(rent)
	reportingSvc := reporting.New(store)
	return &fixture{
		store:   store,
		svc:     New(store, store, reportingSvc),
		posting: posting.New(store, store),
		scope:   books.Scope{BusinessID: biz.ID},
		year:    year,
		vtype:   vtype,
		bank:    bank,
		sales:   sales,
		rent:    rent,
	}
}

// bankEntry posts a voucher touching the bank account and returns the bank
// side's journal entry. minor > 0 debits the bank, minor < 0 credits it.
func (f *fixture) bankEntry(t *testing.T, minor int64, day int) books.JournalEntry {
	t.Helper()
	ctx := context.Background()
	items := []books.VoucherItem{
		{AccountID: f.bank.ID, Debit: books.MustAmount("GBP", minor), Credit: books.MustAmount("GBP", 0)},
		{AccountID: f.sales.ID, Debit: books.MustAmount("GBP", 0), Credit: books.MustAmount("GBP", minor)},
	}
	if minor < 0 {
		items = []books.VoucherItem{
			{AccountID: f.rent.ID, Debit: books.MustAmount("GBP", -minor), Credit: books.MustAmount("GBP", 0)},
			{AccountID: f.bank.ID, Debit: books.MustAmount("GBP", 0), Credit: books.MustAmount("GBP", -minor)},
		}
	}
	v, err := f.posting.Create(ctx, f.scope, books.Voucher{
		BusinessID:      f.scope.BusinessID,
		TypeID:          f.vtype.ID,
		FinancialYearID: f.year.ID,
		Date:            time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		Currency:        "GBP",
		Items:           items,
	})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}
	if _, err := f.posting.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("post voucher: %v", err)
	}
	entries, err := f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	for _, e := range entries {
		if e.AccountID == f.bank.ID {
			return e
		}
	}
	t.Fatalf("no bank entry generated")
	return books.JournalEntry{}
}

func reconciledMinor(t *testing.T, r books.Reconciliation) int64 {
	t.Helper()
	n, _ := r.ReconciledBalance.MinorUnits()
	return n
}

func TestCreateRejectsNonBankAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.scope, f.sales.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 0)
	if !errors.Is(err, errs.ErrNotBankAccount) {
		t.Fatalf("err = %v, want ErrNotBankAccount", err)
	}
}

func TestCreateSnapshotsAccountBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bankEntry(t, 2000, 1)
	f.bankEntry(t, -500, 2)
	r, err := f.svc.Create(ctx, f.scope, f.bank.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 1500)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	acct, _ := r.AccountBalance.MinorUnits()
	if acct != 1500 {
		t.Fatalf("account balance = %d, want 1500", acct)
	}
	if reconciledMinor(t, r) != 0 {
		t.Fatalf("reconciled balance must start at 0")
	}
}

func TestReconciledBalanceAndDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deposit := f.bankEntry(t, 120000, 1) // 1200.00 in
	payment := f.bankEntry(t, -30000, 2) // 300.00 out
	statement := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	r, err := f.svc.Create(ctx, f.scope, f.bank.ID, statement, 100000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, deposit.ID, true); err != nil {
		t.Fatalf("add deposit: %v", err)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, payment.ID, true); err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if got := reconciledMinor(t, r); got != 90000 {
		t.Fatalf("reconciled = %d, want 90000", got)
	}
	if got := f.svc.Difference(r); got != 10000 {
		t.Fatalf("difference = %d, want 10000", got)
	}
}

func TestReconciledBalanceRecomputesOnEveryMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deposit := f.bankEntry(t, 5000, 1)
	payment := f.bankEntry(t, -2000, 2)
	r, err := f.svc.Create(ctx, f.scope, f.bank.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 3000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, deposit.ID, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := reconciledMinor(t, r); got != 0 {
		t.Fatalf("unreconciled item must not count, got %d", got)
	}
	if r, err = f.svc.SetReconciled(ctx, f.scope, r.ID, deposit.ID, true); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := reconciledMinor(t, r); got != 5000 {
		t.Fatalf("reconciled = %d, want 5000", got)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, payment.ID, true); err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if got := reconciledMinor(t, r); got != 3000 {
		t.Fatalf("reconciled = %d, want 3000", got)
	}
	if r, err = f.svc.RemoveItem(ctx, f.scope, r.ID, payment.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := reconciledMinor(t, r); got != 5000 {
		t.Fatalf("reconciled after remove = %d, want 5000", got)
	}
}

func TestAddItemGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deposit := f.bankEntry(t, 1000, 1)
	r, err := f.svc.Create(ctx, f.scope, f.bank.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.scope, r.ID, uuid.New(), true); !errors.Is(err, errs.ErrOrphanReference) {
		t.Fatalf("unknown entry err = %v, want ErrOrphanReference", err)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, deposit.ID, true); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, f.scope, r.ID, deposit.ID, true); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
}

func TestCompleteFreezesItemsAndReopenUnfreezes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deposit := f.bankEntry(t, 4000, 1)
	r, err := f.svc.Create(ctx, f.scope, f.bank.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 4000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r, err = f.svc.AddItem(ctx, f.scope, r.ID, deposit.ID, true); err != nil {
		t.Fatalf("add: %v", err)
	}
	actor := uuid.New()
	r, err = f.svc.Complete(ctx, f.scope, r.ID, actor)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !r.Completed || r.CompletedBy == nil || *r.CompletedBy != actor || r.CompletedAt == nil {
		t.Fatalf("completion fields not set: %+v", r)
	}
	if _, err := f.svc.SetReconciled(ctx, f.scope, r.ID, deposit.ID, false); !errors.Is(err, errs.ErrCompleted) {
		t.Fatalf("mutation on completed err = %v, want ErrCompleted", err)
	}
	// Completing again is a no-op, not an error.
	again, err := f.svc.Complete(ctx, f.scope, r.ID, uuid.New())
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if again.CompletedBy == nil || *again.CompletedBy != actor {
		t.Fatalf("re-complete must not change the actor")
	}
	r, err = f.svc.Reopen(ctx, f.scope, r.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if r.Completed || r.CompletedBy != nil || r.CompletedAt != nil {
		t.Fatalf("reopen must clear completion fields: %+v", r)
	}
	if _, err := f.svc.SetReconciled(ctx, f.scope, r.ID, deposit.ID, false); err != nil {
		t.Fatalf("mutation after reopen: %v", err)
	}
}
