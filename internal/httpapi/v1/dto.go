package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/meta"
	"github.com/veribooks/books/internal/service/reporting"
)

// All monetary fields on the wire are integer minor units plus an ISO 4217
// currency code. Formatting is the client's concern.

type groupRequest struct {
	BusinessID         uuid.UUID    `json:"business_id"`
	Name               string       `json:"name"`
	ParentID           *uuid.UUID   `json:"parent_id,omitempty"`
	Nature             books.Nature `json:"nature"`
	AffectsGrossProfit bool         `json:"affects_gross_profit"`
	Sequence           int          `json:"sequence"`
}

type groupResponse struct {
	ID                 uuid.UUID    `json:"id"`
	BusinessID         uuid.UUID    `json:"business_id"`
	Name               string       `json:"name"`
	ParentID           *uuid.UUID   `json:"parent_id,omitempty"`
	Nature             books.Nature `json:"nature"`
	NormalSide         books.Side   `json:"normal_side"`
	AffectsGrossProfit bool         `json:"affects_gross_profit"`
	Sequence           int          `json:"sequence"`
	// Level is the depth in the flattened taxonomy; only set on listings.
	Level int `json:"level,omitempty"`
}

func toGroupResponse(g books.AccountGroup, level int) groupResponse {
	return groupResponse{
		ID:                 g.ID,
		BusinessID:         g.BusinessID,
		Name:               g.Name,
		ParentID:           g.ParentID,
		Nature:             g.Nature,
		NormalSide:         g.NormalSide(),
		AffectsGrossProfit: g.AffectsGrossProfit,
		Sequence:           g.Sequence,
		Level:              level,
	}
}

type accountRequest struct {
	BusinessID          uuid.UUID     `json:"business_id"`
	GroupID             uuid.UUID     `json:"group_id"`
	Code                string        `json:"code"`
	Name                string        `json:"name"`
	Currency            string        `json:"currency"`
	OpeningBalanceMinor int64         `json:"opening_balance_minor"`
	OpeningSide         books.Side    `json:"opening_side,omitempty"`
	IsBankAccount       bool          `json:"is_bank_account"`
	IsCashAccount       bool          `json:"is_cash_account"`
	Metadata            meta.Metadata `json:"metadata,omitempty"`
}

type accountUpdateRequest struct {
	Name     *string       `json:"name,omitempty"`
	Code     *string       `json:"code,omitempty"`
	GroupID  *uuid.UUID    `json:"group_id,omitempty"`
	Metadata meta.Metadata `json:"metadata,omitempty"`
	Active   *bool         `json:"active,omitempty"`
}

type accountResponse struct {
	ID                  uuid.UUID     `json:"id"`
	BusinessID          uuid.UUID     `json:"business_id"`
	GroupID             uuid.UUID     `json:"group_id"`
	Code                string        `json:"code"`
	Name                string        `json:"name"`
	Currency            string        `json:"currency"`
	OpeningBalanceMinor int64         `json:"opening_balance_minor"`
	OpeningSide         books.Side    `json:"opening_side"`
	IsBankAccount       bool          `json:"is_bank_account"`
	IsCashAccount       bool          `json:"is_cash_account"`
	Metadata            meta.Metadata `json:"metadata,omitempty"`
	Active              bool          `json:"active"`
}

func toAccountResponse(a books.Account) accountResponse {
	opening, _ := a.OpeningBalance.MinorUnits()
	return accountResponse{
		ID:                  a.ID,
		BusinessID:          a.BusinessID,
		GroupID:             a.GroupID,
		Code:                a.Code,
		Name:                a.Name,
		Currency:            a.Currency,
		OpeningBalanceMinor: opening,
		OpeningSide:         a.OpeningSide,
		IsBankAccount:       a.IsBankAccount,
		IsCashAccount:       a.IsCashAccount,
		Metadata:            a.Metadata,
		Active:              a.Active,
	}
}

type voucherItemRequest struct {
	AccountID    uuid.UUID  `json:"account_id"`
	CostCenterID *uuid.UUID `json:"cost_center_id,omitempty"`
	DebitMinor   int64      `json:"debit_minor"`
	CreditMinor  int64      `json:"credit_minor"`
	Narration    string     `json:"narration,omitempty"`
}

type voucherRequest struct {
	BusinessID      uuid.UUID            `json:"business_id"`
	TypeID          uuid.UUID            `json:"type_id"`
	FinancialYearID uuid.UUID            `json:"financial_year_id"`
	Date            time.Time            `json:"date"`
	Currency        string               `json:"currency"`
	PartyID         *uuid.UUID           `json:"party_id,omitempty"`
	Narration       string               `json:"narration,omitempty"`
	Metadata        meta.Metadata        `json:"metadata,omitempty"`
	Items           []voucherItemRequest `json:"items"`
}

type voucherItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	CostCenterID *uuid.UUID `json:"cost_center_id,omitempty"`
	DebitMinor   int64      `json:"debit_minor"`
	CreditMinor  int64      `json:"credit_minor"`
	Narration    string     `json:"narration,omitempty"`
	Sequence     int        `json:"sequence"`
}

type voucherResponse struct {
	ID               uuid.UUID             `json:"id"`
	BusinessID       uuid.UUID             `json:"business_id"`
	TypeID           uuid.UUID             `json:"type_id"`
	FinancialYearID  uuid.UUID             `json:"financial_year_id"`
	Number           int                   `json:"number"`
	Date             time.Time             `json:"date"`
	Currency         string                `json:"currency"`
	PartyID          *uuid.UUID            `json:"party_id,omitempty"`
	Narration        string                `json:"narration,omitempty"`
	Status           string                `json:"status"`
	TotalAmountMinor int64                 `json:"total_amount_minor"`
	Metadata         meta.Metadata         `json:"metadata,omitempty"`
	Items            []voucherItemResponse `json:"items"`
}

func toVoucherResponse(v books.Voucher) voucherResponse {
	status := "draft"
	if v.Posted {
		status = "posted"
	}
	items := make([]voucherItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		d, _ := it.Debit.MinorUnits()
		c, _ := it.Credit.MinorUnits()
		items = append(items, voucherItemResponse{
			ID:           it.ID,
			AccountID:    it.AccountID,
			CostCenterID: it.CostCenterID,
			DebitMinor:   d,
			CreditMinor:  c,
			Narration:    it.Narration,
			Sequence:     it.Sequence,
		})
	}
	return voucherResponse{
		ID:               v.ID,
		BusinessID:       v.BusinessID,
		TypeID:           v.TypeID,
		FinancialYearID:  v.FinancialYearID,
		Number:           v.Number,
		Date:             v.Date,
		Currency:         v.Currency,
		PartyID:          v.PartyID,
		Narration:        v.Narration,
		Status:           status,
		TotalAmountMinor: v.TotalAmount(),
		Metadata:         v.Metadata,
		Items:            items,
	}
}

type entryResponse struct {
	ID              uuid.UUID  `json:"id"`
	VoucherID       uuid.UUID  `json:"voucher_id"`
	AccountID       uuid.UUID  `json:"account_id"`
	CostCenterID    *uuid.UUID `json:"cost_center_id,omitempty"`
	FinancialYearID uuid.UUID  `json:"financial_year_id"`
	Date            time.Time  `json:"date"`
	DebitMinor      int64      `json:"debit_minor"`
	CreditMinor     int64      `json:"credit_minor"`
	Narration       string     `json:"narration,omitempty"`
}

func toEntryResponse(e books.JournalEntry) entryResponse {
	d, _ := e.Debit.MinorUnits()
	c, _ := e.Credit.MinorUnits()
	return entryResponse{
		ID:              e.ID,
		VoucherID:       e.VoucherID,
		AccountID:       e.AccountID,
		CostCenterID:    e.CostCenterID,
		FinancialYearID: e.FinancialYearID,
		Date:            e.Date,
		DebitMinor:      d,
		CreditMinor:     c,
		Narration:       e.Narration,
	}
}

type balanceResponse struct {
	AccountID        uuid.UUID  `json:"account_id"`
	Currency         string     `json:"currency"`
	BalanceMinor     int64      `json:"balance_minor"`
	Side             books.Side `json:"side"`
	TotalDebitMinor  int64      `json:"total_debit_minor"`
	TotalCreditMinor int64      `json:"total_credit_minor"`
}

func toBalanceResponse(b reporting.Balance) balanceResponse {
	return balanceResponse{
		AccountID:        b.AccountID,
		Currency:         b.Currency,
		BalanceMinor:     b.Balance,
		Side:             b.Side,
		TotalDebitMinor:  b.TotalDebit,
		TotalCreditMinor: b.TotalCredit,
	}
}

type ledgerLineResponse struct {
	EntryID      uuid.UUID  `json:"entry_id"`
	VoucherID    uuid.UUID  `json:"voucher_id"`
	Date         time.Time  `json:"date"`
	Narration    string     `json:"narration,omitempty"`
	DebitMinor   int64      `json:"debit_minor"`
	CreditMinor  int64      `json:"credit_minor"`
	BalanceMinor int64      `json:"balance_minor"`
	Side         books.Side `json:"side"`
}

type ledgerResponse struct {
	AccountID           uuid.UUID            `json:"account_id"`
	Currency            string               `json:"currency"`
	OpeningBalanceMinor int64                `json:"opening_balance_minor"`
	OpeningSide         books.Side           `json:"opening_side"`
	Lines               []ledgerLineResponse `json:"lines"`
	Closing             balanceResponse      `json:"closing"`
}

func toLedgerResponse(l reporting.AccountLedger) ledgerResponse {
	lines := make([]ledgerLineResponse, 0, len(l.Lines))
	for _, ln := range l.Lines {
		lines = append(lines, ledgerLineResponse{
			EntryID:      ln.EntryID,
			VoucherID:    ln.VoucherID,
			Date:         ln.Date,
			Narration:    ln.Narration,
			DebitMinor:   ln.Debit,
			CreditMinor:  ln.Credit,
			BalanceMinor: ln.Balance,
			Side:         ln.Side,
		})
	}
	return ledgerResponse{
		AccountID:           l.AccountID,
		Currency:            l.Currency,
		OpeningBalanceMinor: l.OpeningBalance,
		OpeningSide:         l.OpeningSide,
		Lines:               lines,
		Closing:             toBalanceResponse(l.Closing),
	}
}

type trialBalanceRowResponse struct {
	AccountID        uuid.UUID    `json:"account_id"`
	Code             string       `json:"code"`
	Name             string       `json:"name"`
	GroupID          uuid.UUID    `json:"group_id"`
	GroupName        string       `json:"group_name"`
	Nature           books.Nature `json:"nature"`
	TotalDebitMinor  int64        `json:"total_debit_minor"`
	TotalCreditMinor int64        `json:"total_credit_minor"`
}

type trialBalanceWarningResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Reason    string    `json:"reason"`
}

type trialBalanceResponse struct {
	AsOf             *time.Time                    `json:"as_of,omitempty"`
	Rows             []trialBalanceRowResponse     `json:"rows"`
	TotalDebitMinor  int64                         `json:"total_debit_minor"`
	TotalCreditMinor int64                         `json:"total_credit_minor"`
	Warnings         []trialBalanceWarningResponse `json:"warnings,omitempty"`
}

func toTrialBalanceResponse(tb reporting.TrialBalance) trialBalanceResponse {
	rows := make([]trialBalanceRowResponse, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		rows = append(rows, trialBalanceRowResponse{
			AccountID:        row.AccountID,
			Code:             row.Code,
			Name:             row.Name,
			GroupID:          row.GroupID,
			GroupName:        row.GroupName,
			Nature:           row.Nature,
			TotalDebitMinor:  row.TotalDebit,
			TotalCreditMinor: row.TotalCredit,
		})
	}
	var warnings []trialBalanceWarningResponse
	for _, wn := range tb.Warnings {
		warnings = append(warnings, trialBalanceWarningResponse{AccountID: wn.AccountID, Reason: wn.Reason})
	}
	return trialBalanceResponse{
		AsOf:             tb.AsOf,
		Rows:             rows,
		TotalDebitMinor:  tb.TotalDebit,
		TotalCreditMinor: tb.TotalCredit,
		Warnings:         warnings,
	}
}

type dayBookLineResponse struct {
	EntryID     uuid.UUID `json:"entry_id"`
	VoucherID   uuid.UUID `json:"voucher_id"`
	AccountID   uuid.UUID `json:"account_id"`
	AccountName string    `json:"account_name"`
	Date        time.Time `json:"date"`
	Narration   string    `json:"narration,omitempty"`
	DebitMinor  int64     `json:"debit_minor"`
	CreditMinor int64     `json:"credit_minor"`
}

func toDayBookResponse(lines []reporting.DayBookLine) []dayBookLineResponse {
	out := make([]dayBookLineResponse, 0, len(lines))
	for _, ln := range lines {
		out = append(out, dayBookLineResponse{
			EntryID:     ln.EntryID,
			VoucherID:   ln.VoucherID,
			AccountID:   ln.AccountID,
			AccountName: ln.AccountName,
			Date:        ln.Date,
			Narration:   ln.Narration,
			DebitMinor:  ln.Debit,
			CreditMinor: ln.Credit,
		})
	}
	return out
}

type yearRequest struct {
	BusinessID uuid.UUID `json:"business_id"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

type yearResponse struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	Name       string    `json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Locked     bool      `json:"locked"`
}

func toYearResponse(y books.FinancialYear) yearResponse {
	return yearResponse{
		ID:         y.ID,
		BusinessID: y.BusinessID,
		Name:       y.Name,
		StartDate:  y.StartDate,
		EndDate:    y.EndDate,
		Locked:     y.Locked,
	}
}

type voucherTypeRequest struct {
	BusinessID uuid.UUID `json:"business_id"`
	Name       string    `json:"name"`
	Prefix     string    `json:"prefix"`
}

type voucherTypeResponse struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	Name       string    `json:"name"`
	Prefix     string    `json:"prefix"`
}

func toVoucherTypeResponse(t books.VoucherType) voucherTypeResponse {
	return voucherTypeResponse{ID: t.ID, BusinessID: t.BusinessID, Name: t.Name, Prefix: t.Prefix}
}

type costCenterRequest struct {
	BusinessID uuid.UUID  `json:"business_id"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Sequence   int        `json:"sequence"`
}

type costCenterResponse struct {
	ID         uuid.UUID  `json:"id"`
	BusinessID uuid.UUID  `json:"business_id"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Sequence   int        `json:"sequence"`
	Level      int        `json:"level,omitempty"`
}

func toCostCenterResponse(c books.CostCenter, level int) costCenterResponse {
	return costCenterResponse{
		ID:         c.ID,
		BusinessID: c.BusinessID,
		Name:       c.Name,
		ParentID:   c.ParentID,
		Sequence:   c.Sequence,
		Level:      level,
	}
}

type costCenterTotalResponse struct {
	CostCenterID     uuid.UUID `json:"cost_center_id"`
	Name             string    `json:"name,omitempty"`
	TotalDebitMinor  int64     `json:"total_debit_minor"`
	TotalCreditMinor int64     `json:"total_credit_minor"`
}

func toCostCenterTotalsResponse(totals []reporting.CostCenterTotal) []costCenterTotalResponse {
	out := make([]costCenterTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, costCenterTotalResponse{
			CostCenterID:     t.CostCenterID,
			Name:             t.Name,
			TotalDebitMinor:  t.TotalDebit,
			TotalCreditMinor: t.TotalCredit,
		})
	}
	return out
}

type reconciliationRequest struct {
	BusinessID            uuid.UUID `json:"business_id"`
	AccountID             uuid.UUID `json:"account_id"`
	StatementDate         time.Time `json:"statement_date"`
	StatementBalanceMinor int64     `json:"statement_balance_minor"`
}

type reconciliationItemResponse struct {
	JournalEntryID uuid.UUID `json:"journal_entry_id"`
	IsReconciled   bool      `json:"is_reconciled"`
}

type reconciliationResponse struct {
	ID                     uuid.UUID                    `json:"id"`
	BusinessID             uuid.UUID                    `json:"business_id"`
	AccountID              uuid.UUID                    `json:"account_id"`
	StatementDate          time.Time                    `json:"statement_date"`
	StatementBalanceMinor  int64                        `json:"statement_balance_minor"`
	AccountBalanceMinor    int64                        `json:"account_balance_minor"`
	ReconciledBalanceMinor int64                        `json:"reconciled_balance_minor"`
	DifferenceMinor        int64                        `json:"difference_minor"`
	Completed              bool                         `json:"completed"`
	CompletedBy            *uuid.UUID                   `json:"completed_by,omitempty"`
	CompletedAt            *time.Time                   `json:"completed_at,omitempty"`
	Items                  []reconciliationItemResponse `json:"items"`
}

func (s *Server) toReconciliationResponse(r books.Reconciliation) reconciliationResponse {
	stmt, _ := r.StatementBalance.MinorUnits()
	acct, _ := r.AccountBalance.MinorUnits()
	rec, _ := r.ReconciledBalance.MinorUnits()
	items := make([]reconciliationItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, reconciliationItemResponse{JournalEntryID: it.JournalEntryID, IsReconciled: it.IsReconciled})
	}
	return reconciliationResponse{
		ID:                     r.ID,
		BusinessID:             r.BusinessID,
		AccountID:              r.AccountID,
		StatementDate:          r.StatementDate,
		StatementBalanceMinor:  stmt,
		AccountBalanceMinor:    acct,
		ReconciledBalanceMinor: rec,
		DifferenceMinor:        s.reconcile.Difference(r),
		Completed:              r.Completed,
		CompletedBy:            r.CompletedBy,
		CompletedAt:            r.CompletedAt,
		Items:                  items,
	}
}
