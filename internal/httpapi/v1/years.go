// Financial year handlers: create, list, lock, unlock.
package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
)

func (s *Server) postFinancialYear(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in yearRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	if in.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if !in.EndDate.After(in.StartDate) {
		unprocessable(w, "end_date must be after start_date", "validation_error")
		return
	}
	if _, err := s.store.Business(r.Context(), in.BusinessID); err != nil {
		writeDomainErr(w, err)
		return
	}
	y := books.FinancialYear{
		ID:         uuid.New(),
		BusinessID: in.BusinessID,
		Name:       in.Name,
		StartDate:  in.StartDate.UTC(),
		EndDate:    in.EndDate.UTC(),
	}
	created, err := s.store.CreateFinancialYear(r.Context(), y)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toYearResponse(created))
}

func (s *Server) listFinancialYears(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	years, err := s.store.ListFinancialYears(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]yearResponse, 0, len(years))
	for _, y := range years {
		out = append(out, toYearResponse(y))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) lockFinancialYear(w http.ResponseWriter, r *http.Request) {
	s.setYearLock(w, r, true)
}

func (s *Server) unlockFinancialYear(w http.ResponseWriter, r *http.Request) {
	s.setYearLock(w, r, false)
}

func (s *Server) setYearLock(w http.ResponseWriter, r *http.Request, locked bool) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	y, err := s.store.FinancialYear(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	y.Locked = locked
	updated, err := s.store.UpdateFinancialYear(r.Context(), y)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toYearResponse(updated))
}
