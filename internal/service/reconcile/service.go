// Package reconcile matches journal entries of a bank or cash account
// against an external statement. The reconciled balance is recomputed on
// every item mutation, never left stale.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
)

// Repo defines read operations needed by the matcher.
type Repo interface {
	Account(ctx context.Context, scope books.Scope, accountID uuid.UUID) (books.Account, error)
	Reconciliation(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error)
	EntriesByIDs(ctx context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.JournalEntry, error)
}

// Writer defines write operations needed by the matcher.
type Writer interface {
	CreateReconciliation(ctx context.Context, r books.Reconciliation) (books.Reconciliation, error)
	// UpdateReconciliation persists the header and the full item set.
	UpdateReconciliation(ctx context.Context, r books.Reconciliation) (books.Reconciliation, error)
}

// BalanceSource provides the ledger balance of an account as of a date. The
// reporting service satisfies it.
type BalanceSource interface {
	AccountBalanceMinor(ctx context.Context, scope books.Scope, accountID uuid.UUID, asOf *time.Time) (int64, books.Side, error)
}

// Service exposes reconciliation lifecycle and item operations.
type Service interface {
	Create(ctx context.Context, scope books.Scope, accountID uuid.UUID, statementDate time.Time, statementMinor int64) (books.Reconciliation, error)
	Get(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error)
	AddItem(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID, reconciled bool) (books.Reconciliation, error)
	RemoveItem(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID) (books.Reconciliation, error)
	SetReconciled(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID, reconciled bool) (books.Reconciliation, error)
	Complete(ctx context.Context, scope books.Scope, reconciliationID, actorID uuid.UUID) (books.Reconciliation, error)
	Reopen(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error)
	Difference(r books.Reconciliation) int64
}

type service struct {
	repo     Repo
	writer   Writer
	balances BalanceSource
}

func New(repo Repo, writer Writer, balances BalanceSource) Service {
	return &service{repo: repo, writer: writer, balances: balances}
}

// Create opens a reconciliation for a bank/cash account. The reconciled
// balance formula (debits minus credits) assumes a debit-normal account, so
// other accounts are rejected here rather than producing a wrong figure.
func (s *service) Create(ctx context.Context, scope books.Scope, accountID uuid.UUID, statementDate time.Time, statementMinor int64) (books.Reconciliation, error) {
	if scope.BusinessID == uuid.Nil || accountID == uuid.Nil {
		return books.Reconciliation{}, errs.ErrInvalid
	}
	acc, err := s.repo.Account(ctx, scope, accountID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if !acc.IsBankAccount && !acc.IsCashAccount {
		return books.Reconciliation{}, errs.ErrNotBankAccount
	}
	balMinor, side, err := s.balances.AccountBalanceMinor(ctx, scope, accountID, &statementDate)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if side == books.SideCredit {
		balMinor = -balMinor
	}
	r := books.Reconciliation{
		ID:                uuid.New(),
		BusinessID:        scope.BusinessID,
		AccountID:         accountID,
		StatementDate:     statementDate,
		StatementBalance:  books.MustAmount(acc.Currency, statementMinor),
		AccountBalance:    books.MustAmount(acc.Currency, balMinor),
		ReconciledBalance: books.MustAmount(acc.Currency, 0),
	}
	return s.writer.CreateReconciliation(ctx, r)
}

func (s *service) Get(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error) {
	return s.repo.Reconciliation(ctx, scope, reconciliationID)
}

// AddItem links a journal entry to the reconciliation and recomputes the
// reconciled balance.
func (s *service) AddItem(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID, reconciled bool) (books.Reconciliation, error) {
	r, err := s.repo.Reconciliation(ctx, scope, reconciliationID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if r.Completed {
		return books.Reconciliation{}, errs.ErrCompleted
	}
	entries, err := s.repo.EntriesByIDs(ctx, scope, []uuid.UUID{entryID})
	if err != nil {
		return books.Reconciliation{}, err
	}
	entry, ok := entries[entryID]
	if !ok {
		return books.Reconciliation{}, fmt.Errorf("entry %s: %w", entryID, errs.ErrOrphanReference)
	}
	if entry.AccountID != r.AccountID {
		return books.Reconciliation{}, fmt.Errorf("entry %s belongs to another account: %w", entryID, errs.ErrInvalid)
	}
	for _, it := range r.Items {
		if it.JournalEntryID == entryID {
			return books.Reconciliation{}, errs.ErrConflict
		}
	}
	r.Items = append(r.Items, books.ReconciliationItem{
		ReconciliationID: r.ID,
		JournalEntryID:   entryID,
		IsReconciled:     reconciled,
	})
	return s.recalcAndSave(ctx, scope, r)
}

// RemoveItem unlinks a journal entry and recomputes the reconciled balance.
func (s *service) RemoveItem(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID) (books.Reconciliation, error) {
	r, err := s.repo.Reconciliation(ctx, scope, reconciliationID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if r.Completed {
		return books.Reconciliation{}, errs.ErrCompleted
	}
	kept := r.Items[:0]
	found := false
	for _, it := range r.Items {
		if it.JournalEntryID == entryID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	r.Items = kept
	return s.recalcAndSave(ctx, scope, r)
}

// SetReconciled flips one item's reconciled flag and recomputes the
// reconciled balance.
func (s *service) SetReconciled(ctx context.Context, scope books.Scope, reconciliationID, entryID uuid.UUID, reconciled bool) (books.Reconciliation, error) {
	r, err := s.repo.Reconciliation(ctx, scope, reconciliationID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if r.Completed {
		return books.Reconciliation{}, errs.ErrCompleted
	}
	found := false
	for i := range r.Items {
		if r.Items[i].JournalEntryID == entryID {
			r.Items[i].IsReconciled = reconciled
			found = true
			break
		}
	}
	if !found {
		return books.Reconciliation{}, errs.ErrNotFound
	}
	return s.recalcAndSave(ctx, scope, r)
}

// Complete marks the reconciliation done with an actor and timestamp.
func (s *service) Complete(ctx context.Context, scope books.Scope, reconciliationID, actorID uuid.UUID) (books.Reconciliation, error) {
	r, err := s.repo.Reconciliation(ctx, scope, reconciliationID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	if r.Completed {
		return r, nil
	}
	now := time.Now().UTC()
	r.Completed = true
	r.CompletedBy = &actorID
	r.CompletedAt = &now
	return s.writer.UpdateReconciliation(ctx, r)
}

// Reopen clears the completion flag, actor and timestamp.
func (s *service) Reopen(ctx context.Context, scope books.Scope, reconciliationID uuid.UUID) (books.Reconciliation, error) {
	r, err := s.repo.Reconciliation(ctx, scope, reconciliationID)
	if err != nil {
		return books.Reconciliation{}, err
	}
	r.Completed = false
	r.CompletedBy = nil
	r.CompletedAt = nil
	return s.writer.UpdateReconciliation(ctx, r)
}

// Difference is statement balance minus reconciled balance, in minor units.
func (s *service) Difference(r books.Reconciliation) int64 {
	stmt, _ := r.StatementBalance.MinorUnits()
	rec, _ := r.ReconciledBalance.MinorUnits()
	return stmt - rec
}

// recalcAndSave recomputes reconciledBalance = sum(reconciled debits) -
// sum(reconciled credits) and persists the record.
func (s *service) recalcAndSave(ctx context.Context, scope books.Scope, r books.Reconciliation) (books.Reconciliation, error) {
	ids := make([]uuid.UUID, 0, len(r.Items))
	for _, it := range r.Items {
		if it.IsReconciled {
			ids = append(ids, it.JournalEntryID)
		}
	}
	entries, err := s.repo.EntriesByIDs(ctx, scope, ids)
	if err != nil {
		return books.Reconciliation{}, err
	}
	var net int64
	for _, id := range ids {
		entry, ok := entries[id]
		if !ok {
			// Entry got regenerated or removed since it was linked. Skip it
			// from the sum; the caller sees it via the stale link itself.
			continue
		}
		d, _ := entry.Debit.MinorUnits()
		c, _ := entry.Credit.MinorUnits()
		net += d - c
	}
	curr := r.ReconciledBalance.Curr().Code()
	r.ReconciledBalance = books.MustAmount(curr, net)
	return s.writer.UpdateReconciliation(ctx, r)
}
