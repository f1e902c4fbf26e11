package books

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/veribooks/books/internal/meta"
)

// Side represents the accounting position of an amount.
type Side string

const (
	// SideDebit records a value on the debit side of an account.
	SideDebit Side = "debit"
	// SideCredit records a value on the credit side of an account.
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// Nature classifies an account group and fixes the normal balance side of
// every account beneath it.
type Nature string

const (
	NatureAssets      Nature = "assets"
	NatureLiabilities Nature = "liabilities"
	NatureIncome      Nature = "income"
	NatureExpense     Nature = "expense"
	NatureEquity      Nature = "equity"
)

// Valid reports whether n is a known nature.
func (n Nature) Valid() bool {
	switch n {
	case NatureAssets, NatureLiabilities, NatureIncome, NatureExpense, NatureEquity:
		return true
	}
	return false
}

// NormalSide returns the side a balance of this nature is conventionally
// expressed on: debit for assets and expense, credit for the rest.
func (n Nature) NormalSide() Side {
	switch n {
	case NatureAssets, NatureExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Business is the tenant owning a chart of accounts and its vouchers.
type Business struct {
	ID       uuid.UUID
	Name     string
	Currency string
}

// Scope carries the tenant boundary through every core call. It replaces
// ambient business_id filtering: nothing in the services reads tenancy from
// anywhere else.
type Scope struct {
	BusinessID uuid.UUID
}

// FinancialYear is a bounded, lockable accounting period. Posting into a
// locked year is rejected.
type FinancialYear struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	Locked     bool
}

// AccountGroup is a node in the hierarchical account taxonomy. ParentID is
// nil for roots. The parent graph must be acyclic; the taxonomy package
// rejects construction otherwise.
type AccountGroup struct {
	ID                 uuid.UUID
	BusinessID         uuid.UUID
	Name               string
	ParentID           *uuid.UUID
	Nature             Nature
	AffectsGrossProfit bool
	Sequence           int
}

// NormalSide is the sign convention inherited by accounts under this group.
func (g AccountGroup) NormalSide() Side { return g.Nature.NormalSide() }

// Tree accessors used by the taxonomy package.
func (g AccountGroup) TreeID() uuid.UUID      { return g.ID }
func (g AccountGroup) TreeParent() *uuid.UUID { return g.ParentID }
func (g AccountGroup) TreeSequence() int      { return g.Sequence }

// Account is a leaf ledger account. Its sign convention comes from the
// owning group's nature and is never stored redundantly.
type Account struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	GroupID    uuid.UUID
	Code       string
	Name       string
	Currency   string
	// OpeningBalance is the carried-forward balance on OpeningSide.
	OpeningBalance money.Amount
	OpeningSide    Side
	IsBankAccount  bool
	IsCashAccount  bool
	// Metadata holds additional key-value attributes for the account.
	Metadata meta.Metadata `json:"metadata,omitempty"`
	// Active indicates whether the account is active (soft-delete when false).
	Active bool
}

// VoucherType names a class of vouchers (journal, payment, receipt, ...).
// Numbers are allocated per (type, financial year).
type VoucherType struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	Prefix     string
}

// CostCenter is an optional analysis dimension referenced by voucher items.
// Like account groups it forms a tree per business.
type CostCenter struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	ParentID   *uuid.UUID
	Sequence   int
}

// Tree accessors used by the taxonomy package.
func (c CostCenter) TreeID() uuid.UUID      { return c.ID }
func (c CostCenter) TreeParent() *uuid.UUID { return c.ParentID }
func (c CostCenter) TreeSequence() int      { return c.Sequence }

// Voucher is a user-entered transaction. It starts Draft; Post generates
// journal entries and flips Posted, Unpost deletes them and flips it back.
type Voucher struct {
	ID              uuid.UUID
	BusinessID      uuid.UUID
	TypeID          uuid.UUID
	FinancialYearID uuid.UUID
	Number          int
	Date            time.Time
	Currency        string
	PartyID         *uuid.UUID
	Narration       string
	Posted          bool
	Metadata        meta.Metadata `json:"metadata,omitempty"`
	Items           []VoucherItem
}

// Totals returns the debit and credit sums of the voucher's items in minor
// units.
func (v Voucher) Totals() (debit, credit int64) {
	for _, it := range v.Items {
		d, _ := it.Debit.MinorUnits()
		c, _ := it.Credit.MinorUnits()
		debit += d
		credit += c
	}
	return debit, credit
}

// TotalAmount is max(sum of debits, sum of credits) in minor units.
func (v Voucher) TotalAmount() int64 {
	d, c := v.Totals()
	if d > c {
		return d
	}
	return c
}

// Balanced reports whether the item debits equal the item credits.
func (v Voucher) Balanced() bool {
	d, c := v.Totals()
	return d == c
}

// VoucherItem is one line of a voucher. Exactly one of Debit/Credit must be
// non-zero; the posting engine enforces this.
type VoucherItem struct {
	ID           uuid.UUID
	VoucherID    uuid.UUID
	AccountID    uuid.UUID
	CostCenterID *uuid.UUID
	Debit        money.Amount
	Credit       money.Amount
	Narration    string
	Sequence     int
}

// JournalEntry is an immutable, voucher-derived debit/credit record against
// one ledger account. Entries are disposable: posting regenerates the full
// set for a voucher, they are never created independently.
type JournalEntry struct {
	ID              uuid.UUID
	BusinessID      uuid.UUID
	FinancialYearID uuid.UUID
	VoucherID       uuid.UUID
	AccountID       uuid.UUID
	CostCenterID    *uuid.UUID
	Date            time.Time
	Debit           money.Amount
	Credit          money.Amount
	Narration       string
}

// Reconciliation associates journal entries of a bank/cash account with an
// external statement.
type Reconciliation struct {
	ID               uuid.UUID
	BusinessID       uuid.UUID
	AccountID        uuid.UUID
	StatementDate    time.Time
	StatementBalance money.Amount
	AccountBalance   money.Amount
	// ReconciledBalance is recomputed on every item mutation, never left stale.
	ReconciledBalance money.Amount
	Completed         bool
	CompletedBy       *uuid.UUID
	CompletedAt       *time.Time
	Items             []ReconciliationItem
}

// ReconciliationItem links one journal entry to a reconciliation.
type ReconciliationItem struct {
	ReconciliationID uuid.UUID
	JournalEntryID   uuid.UUID
	IsReconciled     bool
}

// MustAmount builds a money.Amount from minor units, panicking on an unknown
// currency. Used for literals and after validation has pinned the currency.
func MustAmount(currency string, minor int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(currency, minor)
	if err != nil {
		panic(err)
	}
	return a
}
