// Package posting implements the voucher posting engine: the Draft<->Posted
// state machine that turns voucher items into journal entries and back.
package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/errs"
)

// Repo defines read operations needed by the engine.
type Repo interface {
	Voucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error)
	FinancialYear(ctx context.Context, scope books.Scope, yearID uuid.UUID) (books.FinancialYear, error)
	AccountsByIDs(ctx context.Context, scope books.Scope, ids []uuid.UUID) (map[uuid.UUID]books.Account, error)
	EntriesByVoucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) ([]books.JournalEntry, error)
}

// Writer defines write operations needed by the engine.
type Writer interface {
	CreateVoucher(ctx context.Context, v books.Voucher) (books.Voucher, error)
	UpdateVoucher(ctx context.Context, v books.Voucher) (books.Voucher, error)
	DeleteVoucher(ctx context.Context, scope books.Scope, voucherID uuid.UUID) error
	// ReplaceVoucherEntries atomically removes every journal entry linked to
	// the voucher, inserts the given set and stores the posted flag. A crash
	// mid-sequence must not leave partial or duplicate entries.
	ReplaceVoucherEntries(ctx context.Context, v books.Voucher, entries []books.JournalEntry) error
	// NextVoucherNumber allocates the next number for (type, financial year).
	// Allocation is serialized; concurrent callers never observe duplicates.
	NextVoucherNumber(ctx context.Context, scope books.Scope, typeID, yearID uuid.UUID) (int, error)
}

// Service exposes voucher lifecycle operations.
type Service interface {
	Validate(ctx context.Context, scope books.Scope, v books.Voucher) error
	Create(ctx context.Context, scope books.Scope, v books.Voucher) (books.Voucher, error)
	Update(ctx context.Context, scope books.Scope, v books.Voucher) (books.Voucher, error)
	Delete(ctx context.Context, scope books.Scope, voucherID uuid.UUID) error
	Post(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error)
	Unpost(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Validate checks the voucher's items against the engine invariants:
// every item carries exactly one non-zero side, every referenced account
// resolves within the scope and matches the voucher currency, and the item
// debits equal the item credits.
func (s *service) Validate(ctx context.Context, scope books.Scope, v books.Voucher) error {
	if scope.BusinessID == uuid.Nil || v.BusinessID != scope.BusinessID {
		return errs.ErrForbidden
	}
	if v.TypeID == uuid.Nil || v.FinancialYearID == uuid.Nil {
		return errs.ErrInvalid
	}
	if v.Currency == "" || v.Date.IsZero() {
		return errs.ErrInvalid
	}
	if len(v.Items) == 0 {
		return errors.New("at least 1 item")
	}
	ids := make([]uuid.UUID, 0, len(v.Items))
	for i, it := range v.Items {
		if it.AccountID == uuid.Nil {
			return itemErr(i, "account_id required")
		}
		d, _ := it.Debit.MinorUnits()
		c, _ := it.Credit.MinorUnits()
		if d < 0 || c < 0 {
			return itemErr(i, "amounts must be >= 0")
		}
		if (d == 0) == (c == 0) {
			return fmt.Errorf("item[%d]: %w", i, errs.ErrMixedItemSides)
		}
		ids = append(ids, it.AccountID)
	}
	if !v.Balanced() {
		return errs.ErrUnbalancedVoucher
	}
	accs, err := s.repo.AccountsByIDs(ctx, scope, ids)
	if err != nil {
		return err
	}
	for i, it := range v.Items {
		acc, ok := accs[it.AccountID]
		if !ok {
			return fmt.Errorf("item[%d]: %w", i, errs.ErrOrphanReference)
		}
		if !acc.Active {
			return itemErr(i, "account is inactive")
		}
		if acc.Currency != v.Currency {
			return itemErr(i, "account currency mismatch")
		}
	}
	return nil
}

// Create validates the voucher, allocates a number when none was proposed
// and persists it as Draft.
func (s *service) Create(ctx context.Context, scope books.Scope, v books.Voucher) (books.Voucher, error) {
	if err := s.Validate(ctx, scope, v); err != nil {
		return books.Voucher{}, err
	}
	if v.Number == 0 {
		n, err := s.writer.NextVoucherNumber(ctx, scope, v.TypeID, v.FinancialYearID)
		if err != nil {
			return books.Voucher{}, err
		}
		v.Number = n
	}
	v.ID = uuid.New()
	v.Posted = false
	for i := range v.Items {
		v.Items[i].ID = uuid.New()
		v.Items[i].VoucherID = v.ID
		if v.Items[i].Sequence == 0 {
			v.Items[i].Sequence = i + 1
		}
	}
	return s.writer.CreateVoucher(ctx, v)
}

// Update replaces a Draft voucher's fields and items. Posted vouchers must
// be unposted first.
func (s *service) Update(ctx context.Context, scope books.Scope, v books.Voucher) (books.Voucher, error) {
	if v.ID == uuid.Nil {
		return books.Voucher{}, errs.ErrInvalid
	}
	current, err := s.repo.Voucher(ctx, scope, v.ID)
	if err != nil {
		return books.Voucher{}, err
	}
	if current.Posted {
		return books.Voucher{}, errs.ErrConflict
	}
	v.Number = current.Number
	v.Posted = false
	if err := s.Validate(ctx, scope, v); err != nil {
		return books.Voucher{}, err
	}
	for i := range v.Items {
		if v.Items[i].ID == uuid.Nil {
			v.Items[i].ID = uuid.New()
		}
		v.Items[i].VoucherID = v.ID
		if v.Items[i].Sequence == 0 {
			v.Items[i].Sequence = i + 1
		}
	}
	return s.writer.UpdateVoucher(ctx, v)
}

// Delete removes a voucher and its items. Posted vouchers are not deletable.
func (s *service) Delete(ctx context.Context, scope books.Scope, voucherID uuid.UUID) error {
	v, err := s.repo.Voucher(ctx, scope, voucherID)
	if err != nil {
		return err
	}
	if v.Posted {
		return errs.ErrNonDeletableVoucher
	}
	return s.writer.DeleteVoucher(ctx, scope, voucherID)
}

// Post generates the voucher's journal entries and flips it to Posted.
// Any entries already linked to the voucher are dropped first, so posting
// twice yields the same entry set.
func (s *service) Post(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error) {
	v, err := s.repo.Voucher(ctx, scope, voucherID)
	if err != nil {
		return books.Voucher{}, err
	}
	year, err := s.repo.FinancialYear(ctx, scope, v.FinancialYearID)
	if err != nil {
		return books.Voucher{}, err
	}
	if year.Locked {
		return books.Voucher{}, errs.ErrLockedPeriod
	}
	if err := s.Validate(ctx, scope, v); err != nil {
		return books.Voucher{}, err
	}
	entries := buildEntries(v)
	v.Posted = true
	if err := s.writer.ReplaceVoucherEntries(ctx, v, entries); err != nil {
		return books.Voucher{}, err
	}
	return v, nil
}

// Unpost deletes the voucher's journal entries and flips it back to Draft.
func (s *service) Unpost(ctx context.Context, scope books.Scope, voucherID uuid.UUID) (books.Voucher, error) {
	v, err := s.repo.Voucher(ctx, scope, voucherID)
	if err != nil {
		return books.Voucher{}, err
	}
	year, err := s.repo.FinancialYear(ctx, scope, v.FinancialYearID)
	if err != nil {
		return books.Voucher{}, err
	}
	if year.Locked {
		return books.Voucher{}, errs.ErrLockedPeriod
	}
	v.Posted = false
	if err := s.writer.ReplaceVoucherEntries(ctx, v, nil); err != nil {
		return books.Voucher{}, err
	}
	return v, nil
}

// buildEntries mirrors the voucher items 1:1 into journal entries. Entry
// date is the voucher date; an item without a narration inherits the
// voucher's.
func buildEntries(v books.Voucher) []books.JournalEntry {
	out := make([]books.JournalEntry, 0, len(v.Items))
	for _, it := range v.Items {
		narration := it.Narration
		if narration == "" {
			narration = v.Narration
		}
		out = append(out, books.JournalEntry{
			ID:              uuid.New(),
			BusinessID:      v.BusinessID,
			FinancialYearID: v.FinancialYearID,
			VoucherID:       v.ID,
			AccountID:       it.AccountID,
			CostCenterID:    it.CostCenterID,
			Date:            normalizeDate(v.Date),
			Debit:           it.Debit,
			Credit:          it.Credit,
			Narration:       narration,
		})
	}
	return out
}

// normalizeDate strips sub-day precision so entry ordering follows the
// reporting (date, id) contract regardless of wall-clock noise.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func itemErr(i int, msg string) error { return fmt.Errorf("item[%d]: %s", i, msg) }
