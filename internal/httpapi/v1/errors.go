package v1

import (
	"errors"
	"net/http"

	"github.com/veribooks/books/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg string)   { writeErr(w, http.StatusConflict, msg, "conflict") }
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeDomainErr maps domain sentinel errors onto HTTP statuses and stable
// machine codes. Anything unmapped is treated as a validation failure.
func writeDomainErr(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrForbidden):
		writeErr(w, http.StatusForbidden, msg, "forbidden")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, msg)
	case errors.Is(err, errs.ErrUnbalancedVoucher):
		unprocessable(w, msg, "unbalanced_voucher")
	case errors.Is(err, errs.ErrMixedItemSides):
		unprocessable(w, msg, "mixed_item_sides")
	case errors.Is(err, errs.ErrLockedPeriod):
		unprocessable(w, msg, "locked_period")
	case errors.Is(err, errs.ErrNonDeletableVoucher):
		conflict(w, msg)
	case errors.Is(err, errs.ErrOrphanReference):
		unprocessable(w, msg, "orphan_reference")
	case errors.Is(err, errs.ErrGroupCycle):
		unprocessable(w, msg, "group_cycle")
	case errors.Is(err, errs.ErrNotBankAccount):
		unprocessable(w, msg, "not_bank_account")
	case errors.Is(err, errs.ErrCompleted):
		conflict(w, msg)
	case errors.Is(err, errs.ErrInvalid):
		unprocessable(w, msg, "validation_error")
	default:
		unprocessable(w, msg, "validation_error")
	}
}
