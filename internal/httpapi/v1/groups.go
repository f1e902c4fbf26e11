// Account group handlers: create, flattened listing, fetch.
package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/taxonomy"
)

func (s *Server) postGroup(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in groupRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	scope := books.Scope{BusinessID: in.BusinessID}
	if _, err := s.store.Business(r.Context(), in.BusinessID); err != nil {
		writeDomainErr(w, err)
		return
	}
	if in.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if !in.Nature.Valid() {
		unprocessable(w, "unknown nature", "validation_error")
		return
	}
	if in.ParentID != nil {
		parent, err := s.store.Group(r.Context(), scope, *in.ParentID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		// A child cannot change sign convention mid-tree.
		if parent.Nature != in.Nature {
			unprocessable(w, "nature must match the parent group", "validation_error")
			return
		}
	}
	g := books.AccountGroup{
		ID:                 uuid.New(),
		BusinessID:         in.BusinessID,
		Name:               in.Name,
		ParentID:           in.ParentID,
		Nature:             in.Nature,
		AffectsGrossProfit: in.AffectsGrossProfit,
		Sequence:           in.Sequence,
	}
	created, err := s.store.CreateGroup(r.Context(), g)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toGroupResponse(created, 0))
}

// listGroups returns the taxonomy flattened depth-first: every parent before
// its children, siblings in (sequence, id) order, with depth levels attached.
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	groups, err := s.store.ListGroups(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	tree, err := taxonomy.New(groups)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	flat := tree.Flatten()
	out := make([]groupResponse, 0, len(flat))
	for _, f := range flat {
		out = append(out, toGroupResponse(f.Node, f.Level))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	g, err := s.store.Group(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toGroupResponse(g, 0))
}
