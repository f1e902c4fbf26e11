// Account handlers: create, list, fetch, update, deactivate.
package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/code"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in accountRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	scope := books.Scope{BusinessID: in.BusinessID}
	if in.Name == "" {
		badRequest(w, "name is required")
		return
	}
	normalized := code.Normalize(in.Code)
	if !code.IsCode(normalized) {
		unprocessable(w, "code must be 1-16 chars of A-Z, 0-9 and dashes", "validation_error")
		return
	}
	group, err := s.store.Group(r.Context(), scope, in.GroupID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	opening, err := money.NewAmountFromMinorUnits(in.Currency, in.OpeningBalanceMinor)
	if err != nil {
		unprocessable(w, "unknown currency "+in.Currency, "validation_error")
		return
	}
	side := in.OpeningSide
	switch side {
	case "":
		side = group.NormalSide()
	case books.SideDebit, books.SideCredit:
	default:
		unprocessable(w, "opening_side must be debit or credit", "validation_error")
		return
	}
	if err := in.Metadata.Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return
	}
	a := books.Account{
		ID:             uuid.New(),
		BusinessID:     in.BusinessID,
		GroupID:        in.GroupID,
		Code:           normalized,
		Name:           in.Name,
		Currency:       in.Currency,
		OpeningBalance: opening,
		OpeningSide:    side,
		IsBankAccount:  in.IsBankAccount,
		IsCashAccount:  in.IsCashAccount,
		Metadata:       in.Metadata.Clone(),
		Active:         true,
	}
	created, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	accs, err := s.store.ListAccounts(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	groupID, ok := queryUUID(w, r, "group_id")
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	out := make([]accountResponse, 0, len(accs))
	for _, a := range accs {
		if groupID != nil && a.GroupID != *groupID {
			continue
		}
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.store.Account(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in accountUpdateRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := s.store.Account(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if in.Name != nil {
		if *in.Name == "" {
			badRequest(w, "name cannot be empty")
			return
		}
		a.Name = *in.Name
	}
	if in.Code != nil {
		normalized := code.Normalize(*in.Code)
		if !code.IsCode(normalized) {
			unprocessable(w, "code must be 1-16 chars of A-Z, 0-9 and dashes", "validation_error")
			return
		}
		a.Code = normalized
	}
	if in.GroupID != nil {
		if _, err := s.store.Group(r.Context(), scope, *in.GroupID); err != nil {
			writeDomainErr(w, err)
			return
		}
		a.GroupID = *in.GroupID
	}
	if in.Metadata != nil {
		if err := in.Metadata.Validate(); err != nil {
			unprocessable(w, err.Error(), "validation_error")
			return
		}
		a.Metadata = in.Metadata.Clone()
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	updated, err := s.store.UpdateAccount(r.Context(), a)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(updated))
}

// deactivateAccount is a soft delete: the account stays resolvable for
// reports, it just stops accepting new postings.
func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.store.Account(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	a.Active = false
	if _, err := s.store.UpdateAccount(r.Context(), a); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
