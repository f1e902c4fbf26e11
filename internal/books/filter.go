package books

import (
	"time"

	"github.com/google/uuid"
)

// EntryFilter bounds a journal entry scan. Nil fields are unbounded; From
// and To are inclusive day bounds.
type EntryFilter struct {
	AccountID       *uuid.UUID
	CostCenterID    *uuid.UUID
	FinancialYearID *uuid.UUID
	From            *time.Time
	To              *time.Time
}

// Matches reports whether the entry falls inside the filter.
func (f EntryFilter) Matches(e JournalEntry) bool {
	if f.AccountID != nil && e.AccountID != *f.AccountID {
		return false
	}
	if f.CostCenterID != nil && (e.CostCenterID == nil || *e.CostCenterID != *f.CostCenterID) {
		return false
	}
	if f.FinancialYearID != nil && e.FinancialYearID != *f.FinancialYearID {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}
