// Cost center handlers: create, flattened listing and activity totals.
package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/taxonomy"
)

func (s *Server) postCostCenter(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in costCenterRequest
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
	if _, err := s.store.Business(r.Context(), in.BusinessID); err != nil {
		writeDomainErr(w, err)
		return
	}
	c := books.CostCenter{
		ID:         uuid.New(),
		BusinessID: in.BusinessID,
		Name:       in.Name,
		ParentID:   in.ParentID,
		Sequence:   in.Sequence,
	}
	created, err := s.store.CreateCostCenter(r.Context(), c)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCostCenterResponse(created, 0))
}

func (s *Server) listCostCenters(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	centers, err := s.store.ListCostCenters(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	tree, err := taxonomy.New(centers)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	flat := tree.Flatten()
	out := make([]costCenterResponse, 0, len(flat))
	for _, f := range flat {
		out = append(out, toCostCenterResponse(f.Node, f.Level))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) costCenterTotals(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	totals, err := s.reporting.CostCenterTotals(r.Context(), scope, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCostCenterTotalsResponse(totals))
}
