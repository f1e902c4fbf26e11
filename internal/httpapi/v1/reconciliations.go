// Reconciliation handlers: create against a statement, link/unlink journal
// entries, toggle reconciled flags, complete and reopen.
package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
)

func (s *Server) postReconciliation(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in reconciliationRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	if in.AccountID == uuid.Nil {
		badRequest(w, "account_id is required")
		return
	}
	scope := books.Scope{BusinessID: in.BusinessID}
	rec, err := s.reconcile.Create(r.Context(), scope, in.AccountID, in.StatementDate, in.StatementBalanceMinor)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, s.toReconciliationResponse(rec))
}

func (s *Server) getReconciliation(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := s.reconcile.Get(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}

func (s *Server) addReconciliationItem(w http.ResponseWriter, r *http.Request) {
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
	var in struct {
		JournalEntryID uuid.UUID `json:"journal_entry_id"`
		IsReconciled   bool      `json:"is_reconciled"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.JournalEntryID == uuid.Nil {
		badRequest(w, "journal_entry_id is required")
		return
	}
	rec, err := s.reconcile.AddItem(r.Context(), scope, id, in.JournalEntryID, in.IsReconciled)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}

func (s *Server) removeReconciliationItem(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	rec, err := s.reconcile.RemoveItem(r.Context(), scope, id, entryID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}

func (s *Server) reconcileItem(w http.ResponseWriter, r *http.Request) {
	s.setItemReconciled(w, r, true)
}

func (s *Server) unreconcileItem(w http.ResponseWriter, r *http.Request) {
	s.setItemReconciled(w, r, false)
}

func (s *Server) setItemReconciled(w http.ResponseWriter, r *http.Request, reconciled bool) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryID")
	if !ok {
		return
	}
	rec, err := s.reconcile.SetReconciled(r.Context(), scope, id, entryID, reconciled)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}

func (s *Server) completeReconciliation(w http.ResponseWriter, r *http.Request) {
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
	var in struct {
		ActorID uuid.UUID `json:"actor_id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.ActorID == uuid.Nil {
		badRequest(w, "actor_id is required")
		return
	}
	rec, err := s.reconcile.Complete(r.Context(), scope, id, in.ActorID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}

func (s *Server) reopenReconciliation(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := s.reconcile.Reopen(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, s.toReconciliationResponse(rec))
}
