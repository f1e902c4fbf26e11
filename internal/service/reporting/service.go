// Package reporting computes balances from journal entries: point-in-time
// account balances, running ledgers, trial balances and the day/cash books.
// Every operation is a pure aggregation, no caching; the balance and the
// running-balance paths must never disagree for the same entry set.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
)

// Repo defines the read operations the reports are built from.
type Repo interface {
	Account(ctx context.Context, scope books.Scope, accountID uuid.UUID) (books.Account, error)
	ListAccounts(ctx context.Context, scope books.Scope) ([]books.Account, error)
	AccountsByIDs(ctx context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.Account, error)
	Group(ctx context.Context, scope books.Scope, groupID uuid.UUID) (books.AccountGroup, error)
	ListGroups(ctx context.Context, scope books.Scope) ([]books.AccountGroup, error)
	ListCostCenters(ctx context.Context, scope books.Scope) ([]books.CostCenter, error)
	Entries(ctx context.Context, scope books.Scope, f books.EntryFilter) ([]books.JournalEntry, error)
}

// Balance is a point-in-time account balance. Balance is the absolute
// figure expressed on Side; a side opposite the account's normal side means
// the account has flipped (e.g. an overdrawn cash account).
type Balance struct {
	AccountID   uuid.UUID
	Currency    string
	Balance     int64
	Side        books.Side
	TotalDebit  int64
	TotalCredit int64
}

// LedgerLine is one step of a running-balance walk.
type LedgerLine struct {
	EntryID   uuid.UUID
	VoucherID uuid.UUID
	Date      time.Time
	Narration string
	Debit     int64
	Credit    int64
	Balance   int64
	Side      books.Side
}

// AccountLedger is the running-balance view of one account.
type AccountLedger struct {
	AccountID      uuid.UUID
	Currency       string
	OpeningBalance int64
	OpeningSide    books.Side
	Lines          []LedgerLine
	// Closing mirrors the last line (or the opening when there are none) and
	// always equals Balance() over the same bound.
	Closing Balance
}

// TrialBalanceRow is one account's totals with its nature attached.
type TrialBalanceRow struct {
	AccountID   uuid.UUID
	Code        string
	Name        string
	GroupID     uuid.UUID
	GroupName   string
	Nature      books.Nature
	TotalDebit  int64
	TotalCredit int64
}

// TrialBalanceWarning reports a row skipped for integrity reasons. The
// aggregation continues; the caller must surface these.
type TrialBalanceWarning struct {
	AccountID uuid.UUID
	Reason    string
}

// TrialBalance is the whole-ledger aggregation as of a date.
type TrialBalance struct {
	AsOf        *time.Time
	Rows        []TrialBalanceRow
	TotalDebit  int64
	TotalCredit int64
	Warnings    []TrialBalanceWarning
}

// DayBookLine is one journal entry resolved for presentation.
type DayBookLine struct {
	EntryID     uuid.UUID
	VoucherID   uuid.UUID
	AccountID   uuid.UUID
	AccountName string
	Date        time.Time
	Narration   string
	Debit       int64
	Credit      int64
}

// CostCenterTotal is one cost center's entry totals over a range.
type CostCenterTotal struct {
	CostCenterID uuid.UUID
	Name         string
	TotalDebit   int64
	TotalCredit  int64
}

// Service exposes the report computations.
type Service interface {
	Balance(ctx context.Context, scope books.Scope, accountID uuid.UUID, asOf *time.Time, yearID *uuid.UUID) (Balance, error)
	Ledger(ctx context.Context, scope books.Scope, accountID uuid.UUID, from, to *time.Time, yearID *uuid.UUID) (AccountLedger, error)
	TrialBalance(ctx context.Context, scope books.Scope, asOf *time.Time, yearID *uuid.UUID) (TrialBalance, error)
	DayBook(ctx context.Context, scope books.Scope, from, to *time.Time) ([]DayBookLine, error)
	CashBook(ctx context.Context, scope books.Scope, from, to *time.Time) ([]AccountLedger, error)
	CostCenterTotals(ctx context.Context, scope books.Scope, from, to *time.Time) ([]CostCenterTotal, error)
	// AccountBalanceMinor is the reconciliation-facing slice of Balance.
	AccountBalanceMinor(ctx context.Context, scope books.Scope, accountID uuid.UUID, asOf *time.Time) (int64, books.Side, error)
}

type service struct {
	repo Repo
}

func New(repo Repo) Service { return &service{repo: repo} }

// normalSide resolves the account's sign convention from its group nature.
func (s *service) normalSide(ctx context.Context, scope books.Scope, acc books.Account) (books.Side, error) {
	g, err := s.repo.Group(ctx, scope, acc.GroupID)
	if err != nil {
		return "", fmt.Errorf("account %s group: %w", acc.ID, err)
	}
	return g.Nature.NormalSide(), nil
}

// openingSigned returns the opening balance as a signed figure relative to
// the account's normal side.
func openingSigned(acc books.Account, normal books.Side) int64 {
	minor, _ := acc.OpeningBalance.MinorUnits()
	if acc.OpeningSide == normal {
		return minor
	}
	return -minor
}

// Balance computes the point-in-time balance of one account: entry totals
// plus the opening balance folded into its side, expressed as an absolute
// figure with the side it falls on.
func (s *service) Balance(ctx context.Context, scope books.Scope, accountID uuid.UUID, asOf *time.Time, yearID *uuid.UUID) (Balance, error) {
	acc, err := s.repo.Account(ctx, scope, accountID)
	if err != nil {
		return Balance{}, err
	}
	normal, err := s.normalSide(ctx, scope, acc)
	if err != nil {
		return Balance{}, err
	}
	entries, err := s.repo.Entries(ctx, scope, books.EntryFilter{AccountID: &accountID, FinancialYearID: yearID, To: asOf})
	if err != nil {
		return Balance{}, err
	}
	var totalDebit, totalCredit int64
	for _, e := range entries {
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		totalDebit += d
		totalCredit += c
	}
	opening, _ := acc.OpeningBalance.MinorUnits()
	if acc.OpeningSide == books.SideDebit {
		totalDebit += opening
	} else {
		totalCredit += opening
	}
	var raw int64
	if normal == books.SideDebit {
		raw = totalDebit - totalCredit
	} else {
		raw = totalCredit - totalDebit
	}
	side := normal
	if raw < 0 {
		raw = -raw
		side = normal.Opposite()
	}
	return Balance{
		AccountID:   accountID,
		Currency:    acc.Currency,
		Balance:     raw,
		Side:        side,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}, nil
}

// Ledger walks the account's entries in (date, id) order producing the
// balance after each one. A from bound does not discard history: activity
// before it is folded into the brought-forward opening, so the closing
// equals Balance() as of the to bound; tests pin that equivalence.
func (s *service) Ledger(ctx context.Context, scope books.Scope, accountID uuid.UUID, from, to *time.Time, yearID *uuid.UUID) (AccountLedger, error) {
	acc, err := s.repo.Account(ctx, scope, accountID)
	if err != nil {
		return AccountLedger{}, err
	}
	normal, err := s.normalSide(ctx, scope, acc)
	if err != nil {
		return AccountLedger{}, err
	}
	entries, err := s.repo.Entries(ctx, scope, books.EntryFilter{AccountID: &accountID, FinancialYearID: yearID, From: from, To: to})
	if err != nil {
		return AccountLedger{}, err
	}
	sortEntries(entries)

	signed := openingSigned(acc, normal)
	openingMinor, _ := acc.OpeningBalance.MinorUnits()
	var totalDebit, totalCredit int64
	if from != nil {
		cutoff := from.Add(-time.Nanosecond)
		prior, err := s.repo.Entries(ctx, scope, books.EntryFilter{AccountID: &accountID, FinancialYearID: yearID, To: &cutoff})
		if err != nil {
			return AccountLedger{}, err
		}
		for _, e := range prior {
			d, _ := e.Debit.MinorUnits()
			c, _ := e.Credit.MinorUnits()
			totalDebit += d
			totalCredit += c
			if normal == books.SideDebit {
				signed += d - c
			} else {
				signed += c - d
			}
		}
	}
	openBal, openSide := openingMinor, acc.OpeningSide
	if from != nil {
		openBal, openSide = signed, normal
		if openBal < 0 {
			openBal, openSide = -openBal, normal.Opposite()
		}
	}
	out := AccountLedger{
		AccountID:      accountID,
		Currency:       acc.Currency,
		OpeningBalance: openBal,
		OpeningSide:    openSide,
		Lines:          make([]LedgerLine, 0, len(entries)),
	}
	for _, e := range entries {
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		totalDebit += d
		totalCredit += c
		if normal == books.SideDebit {
			signed += d - c
		} else {
			signed += c - d
		}
		bal, side := signed, normal
		if bal < 0 {
			bal, side = -bal, normal.Opposite()
		}
		out.Lines = append(out.Lines, LedgerLine{
			EntryID:   e.ID,
			VoucherID: e.VoucherID,
			Date:      e.Date,
			Narration: e.Narration,
			Debit:     d,
			Credit:    c,
			Balance:   bal,
			Side:      side,
		})
	}
	if acc.OpeningSide == books.SideDebit {
		totalDebit += openingMinor
	} else {
		totalCredit += openingMinor
	}
	closingBal, closingSide := signed, normal
	if closingBal < 0 {
		closingBal, closingSide = -closingBal, normal.Opposite()
	}
	out.Closing = Balance{
		AccountID:   accountID,
		Currency:    acc.Currency,
		Balance:     closingBal,
		Side:        closingSide,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}
	return out, nil
}

// TrialBalance groups every journal entry by account. Entries whose account
// no longer resolves or is inactive are skipped and reported, never silently
// dropped and never fatal.
func (s *service) TrialBalance(ctx context.Context, scope books.Scope, asOf *time.Time, yearID *uuid.UUID) (TrialBalance, error) {
	entries, err := s.repo.Entries(ctx, scope, books.EntryFilter{FinancialYearID: yearID, To: asOf})
	if err != nil {
		return TrialBalance{}, err
	}
	type totals struct{ debit, credit int64 }
	byAccount := make(map[uuid.UUID]*totals)
	order := make([]uuid.UUID, 0)
	for _, e := range entries {
		t, ok := byAccount[e.AccountID]
		if !ok {
			t = &totals{}
			byAccount[e.AccountID] = t
			order = append(order, e.AccountID)
		}
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		t.debit += d
		t.credit += c
	}
	accs, err := s.repo.AccountsByIDs(ctx, scope, order)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{AsOf: asOf, Rows: make([]TrialBalanceRow, 0, len(order))}
	for _, accountID := range order {
		t := byAccount[accountID]
		acc, ok := accs[accountID]
		if !ok {
			tb.Warnings = append(tb.Warnings, TrialBalanceWarning{AccountID: accountID, Reason: "account does not resolve"})
			continue
		}
		if !acc.Active {
			tb.Warnings = append(tb.Warnings, TrialBalanceWarning{AccountID: accountID, Reason: "account is inactive"})
			continue
		}
		g, err := s.repo.Group(ctx, scope, acc.GroupID)
		if err != nil {
			tb.Warnings = append(tb.Warnings, TrialBalanceWarning{AccountID: accountID, Reason: "account group does not resolve"})
			continue
		}
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:   accountID,
			Code:        acc.Code,
			Name:        acc.Name,
			GroupID:     g.ID,
			GroupName:   g.Name,
			Nature:      g.Nature,
			TotalDebit:  t.debit,
			TotalCredit: t.credit,
		})
		tb.TotalDebit += t.debit
		tb.TotalCredit += t.credit
	}
	sort.Slice(tb.Rows, func(i, j int) bool {
		if tb.Rows[i].Code != tb.Rows[j].Code {
			return tb.Rows[i].Code < tb.Rows[j].Code
		}
		return tb.Rows[i].AccountID.String() < tb.Rows[j].AccountID.String()
	})
	return tb, nil
}

// DayBook lists every entry in the range in (date, id) order with account
// names resolved. Unresolvable accounts are labeled, not dropped: a day book
// hiding entries would mask the integrity problem.
func (s *service) DayBook(ctx context.Context, scope books.Scope, from, to *time.Time) ([]DayBookLine, error) {
	entries, err := s.repo.Entries(ctx, scope, books.EntryFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	ids := make([]uuid.UUID, 0, len(entries))
	seen := make(map[uuid.UUID]struct{})
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; ok {
			continue
		}
		seen[e.AccountID] = struct{}{}
		ids = append(ids, e.AccountID)
	}
	accs, err := s.repo.AccountsByIDs(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	out := make([]DayBookLine, 0, len(entries))
	for _, e := range entries {
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		name := "(unresolved account)"
		if acc, ok := accs[e.AccountID]; ok {
			name = acc.Name
		}
		out = append(out, DayBookLine{
			EntryID:     e.ID,
			VoucherID:   e.VoucherID,
			AccountID:   e.AccountID,
			AccountName: name,
			Date:        e.Date,
			Narration:   e.Narration,
			Debit:       d,
			Credit:      c,
		})
	}
	return out, nil
}

// CashBook returns the running ledger of every bank/cash account.
func (s *service) CashBook(ctx context.Context, scope books.Scope, from, to *time.Time) ([]AccountLedger, error) {
	accounts, err := s.repo.ListAccounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]AccountLedger, 0)
	for _, acc := range accounts {
		if !acc.IsBankAccount && !acc.IsCashAccount {
			continue
		}
		if !acc.Active {
			continue
		}
		led, err := s.Ledger(ctx, scope, acc.ID, from, to, nil)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, led)
	}
	return out, nil
}

// CostCenterTotals aggregates entry activity per cost center over the range.
// Entries with no cost center are left out; a total for a cost center that no
// longer resolves keeps the id with an empty name.
func (s *service) CostCenterTotals(ctx context.Context, scope books.Scope, from, to *time.Time) ([]CostCenterTotal, error) {
	entries, err := s.repo.Entries(ctx, scope, books.EntryFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	type totals struct{ debit, credit int64 }
	byCenter := make(map[uuid.UUID]*totals)
	for _, e := range entries {
		if e.CostCenterID == nil {
			continue
		}
		t, ok := byCenter[*e.CostCenterID]
		if !ok {
			t = &totals{}
			byCenter[*e.CostCenterID] = t
		}
		d, _ := e.Debit.MinorUnits()
		c, _ := e.Credit.MinorUnits()
		t.debit += d
		t.credit += c
	}
	centers, err := s.repo.ListCostCenters(ctx, scope)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(centers))
	for _, c := range centers {
		names[c.ID] = c.Name
	}
	out := make([]CostCenterTotal, 0, len(byCenter))
	for id, t := range byCenter {
		out = append(out, CostCenterTotal{
			CostCenterID: id,
			Name:         names[id],
			TotalDebit:   t.debit,
			TotalCredit:  t.credit,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CostCenterID.String() < out[j].CostCenterID.String()
	})
	return out, nil
}

// AccountBalanceMinor returns just the balance figure and side as of a date.
func (s *service) AccountBalanceMinor(ctx context.Context, scope books.Scope, accountID uuid.UUID, asOf *time.Time) (int64, books.Side, error) {
	b, err := s.Balance(ctx, scope, accountID, asOf, nil)
	if err != nil {
		return 0, "", err
	}
	return b.Balance, b.Side, nil
}

// sortEntries orders by (date, id) ascending, the contract every running
// view depends on.
func sortEntries(entries []books.JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}
