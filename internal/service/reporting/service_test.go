package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/service/posting"
	"github.com/veribooks/books/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     Service
	posting posting.Service
	scope   books.Scope
	year    books.FinancialYear
	vtype   books.VoucherType
	cash    books.Account
	sales   books.Account
	rent    books.Account
}

// newFixture seeds a business whose cash account carries a 10.00 debit
// opening balance.
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
	expense := books.AccountGroup{ID: uuid.New(), BusinessID: biz.ID, Name: "Indirect Expenses", Nature: books.NatureExpense}
	store.SeedGroup(assets)
	store.SeedGroup(income)
	store.SeedGroup(expense)
	cash := books.Account{
		ID: uuid.New(), BusinessID: biz.ID, GroupID: assets.ID, Code: "CASH", Name: "Cash",
		Currency: "GBP", OpeningBalance: books.MustAmount("GBP", 1000), OpeningSide: books.SideDebit,
		IsCashAccount: true, Active: true,
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
	store.SeedAccount(cash)
	store.SeedAccount(sales)
	store.SeedAccount(rent)
	return &fixture{
		store:   store,
		svc:     New(store),
		posting: posting.New(store, store),
		scope:   books.Scope{BusinessID: biz.ID},
		year:    year,
		vtype:   vtype,
		cash:    cash,
		sales:   sales,
		rent:    rent,
	}
}

// post creates and posts a two-item voucher moving minor units from credit
// account to debit account on the given day of March 2026.
func (f *fixture) post(t *testing.T, debitAcc, creditAcc uuid.UUID, minor int64, day int) books.Voucher {
	t.Helper()
	ctx := context.Background()
	v, err := f.posting.Create(ctx, f.scope, books.Voucher{
		BusinessID:      f.scope.BusinessID,
		TypeID:          f.vtype.ID,
		FinancialYearID: f.year.ID,
		Date:            time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		Currency:        "GBP",
		Items: []books.VoucherItem{
			{AccountID: debitAcc, Debit: books.MustAmount("GBP", minor), Credit: books.MustAmount("GBP", 0)},
			{AccountID: creditAcc, Debit: books.MustAmount("GBP", 0), Credit: books.MustAmount("GBP", minor)},
		},
	})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}
	posted, err := f.posting.Post(ctx, f.scope, v.ID)
	if err != nil {
		t.Fatalf("post voucher: %v", err)
	}
	return posted
}

func TestBalanceFlipsSideWhenOverdrawn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Opening 10.00 debit, then 15.00 credited away: the cash account has
	// flipped to a 5.00 credit balance.
	f.post(t, f.rent.ID, f.cash.ID, 1500, 1)
	b, err := f.svc.Balance(ctx, f.scope, f.cash.ID, nil, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.Balance != 500 || b.Side != books.SideCredit {
		t.Fatalf("balance = %d %s, want 500 credit", b.Balance, b.Side)
	}
	if b.TotalDebit != 1000 || b.TotalCredit != 1500 {
		t.Fatalf("totals = %d/%d, want 1000/1500", b.TotalDebit, b.TotalCredit)
	}
}

func TestLedgerRunningBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 500, 1)  // cash 1000 -> 1500 debit
	f.post(t, f.rent.ID, f.cash.ID, 200, 2)   // cash 1500 -> 1300 debit
	led, err := f.svc.Ledger(ctx, f.scope, f.cash.ID, nil, nil, nil)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(led.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(led.Lines))
	}
	if led.Lines[0].Balance != 1500 || led.Lines[0].Side != books.SideDebit {
		t.Fatalf("line 0 = %d %s, want 1500 debit", led.Lines[0].Balance, led.Lines[0].Side)
	}
	if led.Lines[1].Balance != 1300 || led.Lines[1].Side != books.SideDebit {
		t.Fatalf("line 1 = %d %s, want 1300 debit", led.Lines[1].Balance, led.Lines[1].Side)
	}
	b, err := f.svc.Balance(ctx, f.scope, f.cash.ID, nil, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if led.Closing.Balance != b.Balance || led.Closing.Side != b.Side {
		t.Fatalf("closing %d %s != balance %d %s", led.Closing.Balance, led.Closing.Side, b.Balance, b.Side)
	}
}

func TestLedgerClosingMatchesBalanceForEveryAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 1200, 1)
	f.post(t, f.rent.ID, f.cash.ID, 300, 2)
	f.post(t, f.cash.ID, f.sales.ID, 750, 3)
	for _, id := range []uuid.UUID{f.cash.ID, f.sales.ID, f.rent.ID} {
		led, err := f.svc.Ledger(ctx, f.scope, id, nil, nil, nil)
		if err != nil {
			t.Fatalf("ledger: %v", err)
		}
		b, err := f.svc.Balance(ctx, f.scope, id, nil, nil)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if led.Closing.Balance != b.Balance || led.Closing.Side != b.Side {
			t.Fatalf("account %s: closing %d %s != balance %d %s", id, led.Closing.Balance, led.Closing.Side, b.Balance, b.Side)
		}
	}
}

func TestTrialBalanceSumsToZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 900, 1)
	f.post(t, f.rent.ID, f.cash.ID, 400, 2)
	tb, err := f.svc.TrialBalance(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if tb.TotalDebit != tb.TotalCredit {
		t.Fatalf("trial balance out of balance: %d != %d", tb.TotalDebit, tb.TotalCredit)
	}
	if tb.TotalDebit != 1300 {
		t.Fatalf("total = %d, want 1300", tb.TotalDebit)
	}
	if len(tb.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(tb.Rows))
	}
	if len(tb.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", tb.Warnings)
	}
	// Rows come back sorted by code.
	for i := 1; i < len(tb.Rows); i++ {
		if tb.Rows[i-1].Code > tb.Rows[i].Code {
			t.Fatalf("rows not sorted by code: %q > %q", tb.Rows[i-1].Code, tb.Rows[i].Code)
		}
	}
}

func TestTrialBalanceWarnsOnInactiveAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 500, 1)
	f.sales.Active = false
	if _, err := f.store.UpdateAccount(ctx, f.sales); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	tb, err := f.svc.TrialBalance(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if len(tb.Warnings) != 1 || tb.Warnings[0].AccountID != f.sales.ID {
		t.Fatalf("warnings = %v, want one for sales", tb.Warnings)
	}
	for _, row := range tb.Rows {
		if row.AccountID == f.sales.ID {
			t.Fatalf("inactive account must not produce a row")
		}
	}
}

func TestBalanceAsOfExcludesLaterEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 500, 1)
	f.post(t, f.cash.ID, f.sales.ID, 700, 10)
	asOf := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	b, err := f.svc.Balance(ctx, f.scope, f.cash.ID, &asOf, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.Balance != 1500 || b.Side != books.SideDebit {
		t.Fatalf("balance = %d %s, want 1500 debit", b.Balance, b.Side)
	}
}

func TestDayBookOrdersByDateThenID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.rent.ID, f.cash.ID, 300, 7)
	f.post(t, f.cash.ID, f.sales.ID, 900, 2)
	lines, err := f.svc.DayBook(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("day book: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		prev, cur := lines[i-1], lines[i]
		if cur.Date.Before(prev.Date) {
			t.Fatalf("day book out of date order at %d", i)
		}
		if cur.Date.Equal(prev.Date) && cur.EntryID.String() < prev.EntryID.String() {
			t.Fatalf("day book out of id order at %d", i)
		}
	}
	for _, ln := range lines {
		if ln.AccountName == "" || ln.AccountName == "(unresolved account)" {
			t.Fatalf("account name should resolve, got %q", ln.AccountName)
		}
	}
}

func TestCashBookOnlyCoversBankAndCashAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 600, 1)
	ledgers, err := f.svc.CashBook(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("cash book: %v", err)
	}
	if len(ledgers) != 1 {
		t.Fatalf("ledgers = %d, want just the cash account", len(ledgers))
	}
	if ledgers[0].AccountID != f.cash.ID {
		t.Fatalf("ledger account = %s, want cash", ledgers[0].AccountID)
	}
	if len(ledgers[0].Lines) != 1 || ledgers[0].Closing.Balance != 1600 {
		t.Fatalf("cash ledger closing = %d, want 1600", ledgers[0].Closing.Balance)
	}
}

func TestCostCenterTotalsAggregatesTaggedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shop := books.CostCenter{ID: uuid.New(), BusinessID: f.scope.BusinessID, Name: "Shop"}
	online := books.CostCenter{ID: uuid.New(), BusinessID: f.scope.BusinessID, Name: "Online"}
	f.store.SeedCostCenter(shop)
	f.store.SeedCostCenter(online)

	tagged := func(ccID uuid.UUID, minor int64, day int) {
		t.Helper()
		v, err := f.posting.Create(ctx, f.scope, books.Voucher{
			BusinessID:      f.scope.BusinessID,
			TypeID:          f.vtype.ID,
			FinancialYearID: f.year.ID,
			Date:            time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			Currency:        "GBP",
			Items: []books.VoucherItem{
				{AccountID: f.cash.ID, CostCenterID: &ccID, Debit: books.MustAmount("GBP", minor), Credit: books.MustAmount("GBP", 0)},
				{AccountID: f.sales.ID, Debit: books.MustAmount("GBP", 0), Credit: books.MustAmount("GBP", minor)},
			},
		})
		if err != nil {
			t.Fatalf("create voucher: %v", err)
		}
		if _, err := f.posting.Post(ctx, f.scope, v.ID); err != nil {
			t.Fatalf("post voucher: %v", err)
		}
	}
	tagged(shop.ID, 500, 1)
	tagged(shop.ID, 700, 2)
	tagged(online.ID, 300, 3)
	f.post(t, f.cash.ID, f.sales.ID, 900, 4) // untagged, must not appear

	totals, err := f.svc.CostCenterTotals(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("cost center totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("totals = %d, want 2", len(totals))
	}
	// Sorted by name: Online before Shop.
	if totals[0].CostCenterID != online.ID || totals[0].TotalDebit != 300 {
		t.Fatalf("online = %+v, want debit 300", totals[0])
	}
	if totals[1].CostCenterID != shop.ID || totals[1].TotalDebit != 1200 {
		t.Fatalf("shop = %+v, want debit 1200", totals[1])
	}
	if totals[1].TotalCredit != 0 {
		t.Fatalf("shop credit = %d, want 0", totals[1].TotalCredit)
	}
}

func TestRangedLedgerBringsForwardPriorActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.post(t, f.cash.ID, f.sales.ID, 500, 1)
	f.post(t, f.rent.ID, f.cash.ID, 200, 2)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from
	led, err := f.svc.Ledger(ctx, f.scope, f.cash.ID, &from, &to, nil)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	// Day 1 is outside the range but carried forward: 10.00 opening + 5.00.
	if led.OpeningBalance != 1500 || led.OpeningSide != books.SideDebit {
		t.Fatalf("opening = %d %s, want 1500 debit brought forward", led.OpeningBalance, led.OpeningSide)
	}
	if len(led.Lines) != 1 {
		t.Fatalf("lines = %d, want just the day 2 entry", len(led.Lines))
	}
	if led.Lines[0].Balance != 1300 || led.Lines[0].Side != books.SideDebit {
		t.Fatalf("line balance = %d %s, want 1300 debit", led.Lines[0].Balance, led.Lines[0].Side)
	}

	bal, err := f.svc.Balance(ctx, f.scope, f.cash.ID, &to, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if led.Closing.Balance != bal.Balance || led.Closing.Side != bal.Side {
		t.Fatalf("ranged closing = %d %s, balance = %d %s", led.Closing.Balance, led.Closing.Side, bal.Balance, bal.Side)
	}
	if led.Closing.TotalDebit != bal.TotalDebit || led.Closing.TotalCredit != bal.TotalCredit {
		t.Fatalf("ranged closing totals = %d/%d, balance totals = %d/%d",
			led.Closing.TotalDebit, led.Closing.TotalCredit, bal.TotalDebit, bal.TotalCredit)
	}

	ledgers, err := f.svc.CashBook(ctx, f.scope, &from, &to)
	if err != nil {
		t.Fatalf("cash book: %v", err)
	}
	if len(ledgers) != 1 || ledgers[0].Closing.Balance != bal.Balance {
		t.Fatalf("ranged cash book closing = %d, want %d", ledgers[0].Closing.Balance, bal.Balance)
	}
}

func TestTrialBalanceWarnsOnUnresolvableAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.post(t, f.cash.ID, f.sales.ID, 500, 1)

	// Point the cash-side entry at an account id nothing resolves.
	entries, err := f.store.EntriesByVoucher(ctx, f.scope, v.ID)
	if err != nil {
		t.Fatalf("entries by voucher: %v", err)
	}
	ghost := uuid.New()
	for i := range entries {
		if entries[i].AccountID == f.cash.ID {
			entries[i].AccountID = ghost
		}
	}
	if err := f.store.ReplaceVoucherEntries(ctx, v, entries); err != nil {
		t.Fatalf("replace entries: %v", err)
	}

	tb, err := f.svc.TrialBalance(ctx, f.scope, nil, nil)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	var warned bool
	for _, w := range tb.Warnings {
		if w.AccountID == ghost && w.Reason == "account does not resolve" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("warnings = %+v, want one for the unresolvable account", tb.Warnings)
	}
	for _, row := range tb.Rows {
		if row.AccountID == ghost {
			t.Fatalf("unresolvable account must not get a row")
		}
	}
	if tb.TotalCredit != 500 || tb.TotalDebit != 0 {
		t.Fatalf("totals = %d/%d, want 0/500 from the surviving row", tb.TotalDebit, tb.TotalCredit)
	}
}
