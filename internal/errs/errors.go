package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")

	// ErrUnbalancedVoucher rejects posting when item debits != item credits.
	ErrUnbalancedVoucher = errors.New("unbalanced_voucher")
	// ErrLockedPeriod rejects posting into a locked financial year.
	ErrLockedPeriod = errors.New("locked_period")
	// ErrNonDeletableVoucher rejects deletion of a posted voucher.
	ErrNonDeletableVoucher = errors.New("non_deletable_voucher")
	// ErrOrphanReference marks an entry or item pointing at an account that
	// no longer resolves. Reported, never silently treated as zero.
	ErrOrphanReference = errors.New("orphan_reference")
	// ErrMixedItemSides rejects a voucher item carrying both a debit and a
	// credit amount (or neither).
	ErrMixedItemSides = errors.New("mixed_item_sides")
	// ErrGroupCycle rejects an account-group or cost-center tree whose
	// parent chain revisits itself.
	ErrGroupCycle = errors.New("group_cycle")
	// ErrNotBankAccount rejects reconciliations against accounts that are
	// neither bank nor cash.
	ErrNotBankAccount = errors.New("not_bank_account")
	// ErrCompleted indicates a mutation on a completed reconciliation.
	ErrCompleted = errors.New("reconciliation_completed")
)
