package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
	"github.com/veribooks/books/internal/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   Service
	scope books.Scope
	year  books.FinancialYear
	vtype books.VoucherType
	cash  books.Account
	sales books.Account
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
	vtype := books.VoucherType{ID: uuid.New(), BusinessID: biz.ID, Name: "Journal", Prefix: "JRN"}
	store.SeedVoucherType(vtype)
	assets := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Current Assets", Nature: books.NatureAssets}
	income := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Sales", Nature: books.NatureIncome}
	store.SeedGroup(assets)
	store.SeedGroup(income)
	cash := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: assets.ID, Code: "CASH", Name: "Cash",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 0), OpeningSide: books.SideDebit,
		IsCashAccount: true, Active: true,
	}
	sales := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: income.ID, Code: "SALES", Name: "Sales",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 0), OpeningSide: books.SideCredit,
		Active: true,
	}
	store.SeedAccount(cash)
	store.SeedAccount(sales)
	return &fixture{
		store: store,
		svc:   New(store, store),
		scope: books.Scope{BusinessID: biz.ID},
		year:  year,
		vtype: vtype,
		cash:  cash,
		sales: sales,
	}
}

func (f *fixture) voucher(debitMinor, creditMinor int64) books.Voucher {
	return books.Voucher{
		BusinessID:      f.scope.BusinessID,
		TypeID:          f.vtype.ID,
		FinancialYearID: f.year.ID,
		Date:            time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:        "GBP",
		Narration:       "cash sale",
		Items: []books.VoucherItem{
			{AccountID: f.cash.ID, Debit: books.MustAmount("GBP", debitMinor), Credit: books.MustAmount("GBP", 0)},
			{AccountID: f.sales.ID, Debit: books.MustAmount("GBP", 0), Credit: books.MustAmount("GBP", creditMinor)},
		},
	}
}

func TestCreateAllocatesSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		v, err := f.svc.Create(ctx, f.scope, f.voucher(100, 100))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if v.Number != want {
			t.Fatalf("number = %d, want %d", v.Number, want)
		}
		if v.Posted {
			t.Fatalf("new voucher must start draft")
		}
	}
}

func TestCreateRejectsUnbalanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.scope, f.voucher(1000, 900))
	if !errors.Is(err, errs.ErrUnbalancedVoucher) {
		t.Fatalf("err = %v, want ErrUnbalancedVoucher", err)
	}
}

func TestCreateRejectsMixedItemSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.voucher(100, 100)
	v.Items[0].Credit = books.MustAmount("GBP", 50)
	_, err := f.svc.Create(ctx, f.scope, v)
	if !errors.Is(err, errs.ErrMixedItemSides) {
		t.Fatalf("err = %v, want ErrMixedItemSides", err)
	}
}

func TestCreateRejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.voucher(100, 100)
	v.Items[0].AccountID = uuid.New()
	_, err := f.svc.Create(ctx, f.scope, v)
	if !errors.Is(err, errs.ErrOrphanReference) {
		t.Fatalf("err = %v, want ErrOrphanReference", err)
	}
}

func TestCreateRejectsWrongScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, books.Scope{BusinessID: uuid.New()}, f.voucher(100, 100))
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestPostGeneratesMirroredEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.scope, f.voucher(1500, 1500))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	posted, err := f.svc.Post(ctx, f.scope, v.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !posted.Posted {
		t.Fatalf("voucher should be posted")
	}
	entries, err := f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != len(v.Items) {
		t.Fatalf("entries = %d, want %d", len(entries), len(v.Items))
	}
	var debit, credit int64
	for _, e := range entries {
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		debit += d
		credit += c
		if e.Narration != "cash sale" {
			t.Fatalf("entry narration = %q, want voucher fallback", e.Narration)
		}
		if !e.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("entry date = %v, want day-truncated voucher date", e.Date)
		}
	}
	if debit != credit || debit != 1500 {
		t.Fatalf("entry totals debit=%d credit=%d, want 1500 each", debit, credit)
	}
}

func TestRepostRegeneratesWithoutDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.scope, f.voucher(700, 700))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := f.svc.Unpost(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("unpost: %v", err)
	}
	entries, _ := f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if len(entries) != 0 {
		t.Fatalf("entries after unpost = %d, want 0", len(entries))
	}
	if _, err := f.svc.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("repost: %v", err)
	}
	if _, err := f.svc.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("double post: %v", err)
	}
	entries, _ = f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if len(entries) != 2 {
		t.Fatalf("entries after double post = %d, want 2", len(entries))
	}
}

func TestPostRejectsLockedYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.scope, f.voucher(100, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.year.Locked = true
	if _, err := f.store.UpdateFinancialYear(ctx, f.year); err != nil {
		t.Fatalf("lock year: %v", err)
	}
	_, err = f.svc.Post(ctx, f.scope, v.ID)
	if !errors.Is(err, errs.ErrLockedPeriod) {
		t.Fatalf("err = %v, want ErrLockedPeriod", err)
	}
	got, _ := f.store.Voucher(ctx, f.scope, v.ID)
	if got.Posted {
		t.Fatalf("voucher must stay draft after rejected post")
	}
}

func TestUnbalancedPostLeavesVoucherDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Store a draft directly so the unbalanced items bypass Create's checks.
	v := f.voucher(1000, 900)
	v.ID = uuid.New()
	for i := range v.Items {
		v.Items[i].ID = uuid.New()
		v.Items[i].VoucherID = v.ID
	}
	if _, err := f.store.CreateVoucher(ctx, v); err != nil {
		t.Fatalf("seed voucher: %v", err)
	}
	_, err := f.svc.Post(ctx, f.scope, v.ID)
	if !errors.Is(err, errs.ErrUnbalancedVoucher) {
		t.Fatalf("err = %v, want ErrUnbalancedVoucher", err)
	}
	got, _ := f.store.Voucher(ctx, f.scope, v.ID)
	if got.Posted {
		t.Fatalf("voucher must stay draft")
	}
	entries, _ := f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want none", len(entries))
	}
}

func TestDeleteGuardsPostedVouchers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.scope, f.voucher(300, 300))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := f.svc.Delete(ctx, f.scope, v.ID); !errors.Is(err, errs.ErrNonDeletableVoucher) {
		t.Fatalf("err = %v, want ErrNonDeletableVoucher", err)
	}
	if _, err := f.svc.Unpost(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("unpost: %v", err)
	}
	if err := f.svc.Delete(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("delete after unpost: %v", err)
	}
	if _, err := f.store.Voucher(ctx, f.scope, v.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("voucher should be gone, got %v", err)
	}
}

func TestUpdateRejectsPostedVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, f.scope, f.voucher(100, 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Post(ctx, f.scope, v.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	v.Narration = "amended"
	if _, err := f.svc.Update(ctx, f.scope, v); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestItemNarrationIsKeptWhenSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.voucher(250, 250)
	v.Items[0].Narration = "till float"
	created, err := f.svc.Create(ctx, f.scope, v)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Post(ctx, f.scope, created.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	entries, _ := f.store.EntriesByVoucher(ctx, f.scope, created.ID)
	byAccount := map[uuid.UUID]books.JournalEntry{}
	for _, e := range entries {
		byAccount[e.AccountID] = e
	}
	if got := byAccount[f.cash.ID].Narration; got != "till float" {
		t.Fatalf("cash narration = %q, want item narration", got)
	}
	if got := byAccount[f.sales.ID].Narration; got != "cash sale" {
		t.Fatalf("sales narration = %q, want voucher fallback", got)
	}
}
