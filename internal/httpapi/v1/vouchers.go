// Voucher handlers: create, update, list, fetch, delete, post, unpost.
package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/veribooks/books/internal/books"
)

// voucherFromRequest converts the wire voucher into the domain shape. A
// false return means the request was rejected and a response written.
func voucherFromRequest(w http.ResponseWriter, in voucherRequest) (books.Voucher, bool) {
	if err := in.Metadata.Validate(); err != nil {
		unprocessable(w, err.Error(), "validation_error")
		return books.Voucher{}, false
	}
	items := make([]books.VoucherItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.DebitMinor < 0 || it.CreditMinor < 0 {
			unprocessable(w, "item amounts cannot be negative", "validation_error")
			return books.Voucher{}, false
		}
		debit, err := money.NewAmountFromMinorUnits(in.Currency, it.DebitMinor)
		if err != nil {
			unprocessable(w, "unknown currency "+in.Currency, "validation_error")
			return books.Voucher{}, false
		}
		credit, err := money.NewAmountFromMinorUnits(in.Currency, it.CreditMinor)
		if err != nil {
			unprocessable(w, "unknown currency "+in.Currency, "validation_error")
			return books.Voucher{}, false
		}
		items = append(items, books.VoucherItem{
			AccountID:    it.AccountID,
			CostCenterID: it.CostCenterID,
			Debit:        debit,
			Credit:       credit,
			Narration:    it.Narration,
		})
	}
	return books.Voucher{
		BusinessID:      in.BusinessID,
		TypeID:          in.TypeID,
		FinancialYearID: in.FinancialYearID,
		Date:            in.Date,
		Currency:        in.Currency,
		PartyID:         in.PartyID,
		Narration:       in.Narration,
		Metadata:        in.Metadata.Clone(),
		Items:           items,
	}, true
}

func (s *Server) postVoucher(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in voucherRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	scope := books.Scope{BusinessID: in.BusinessID}
	v, ok := voucherFromRequest(w, in)
	if !ok {
		return
	}
	created, err := s.posting.Create(r.Context(), scope, v)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toVoucherResponse(created))
}

// updateVoucher replaces a draft voucher wholesale. Posted vouchers must be
// unposted first; the engine refuses them with a conflict.
func (s *Server) updateVoucher(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in voucherRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.BusinessID == uuid.Nil {
		badRequest(w, "business_id is required")
		return
	}
	scope := books.Scope{BusinessID: in.BusinessID}
	v, ok := voucherFromRequest(w, in)
	if !ok {
		return
	}
	v.ID = id
	updated, err := s.posting.Update(r.Context(), scope, v)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toVoucherResponse(updated))
}

func (s *Server) listVouchers(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	vouchers, err := s.store.ListVouchers(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	typeID, ok := queryUUID(w, r, "type_id")
	if !ok {
		return
	}
	yearID, ok := queryUUID(w, r, "financial_year_id")
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	out := make([]voucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		if typeID != nil && v.TypeID != *typeID {
			continue
		}
		if yearID != nil && v.FinancialYearID != *yearID {
			continue
		}
		if status == "draft" && v.Posted {
			continue
		}
		if status == "posted" && !v.Posted {
			continue
		}
		out = append(out, toVoucherResponse(v))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getVoucher(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := s.store.Voucher(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toVoucherResponse(v))
}

func (s *Server) deleteVoucher(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.posting.Delete(r.Context(), scope, id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// postVoucherEntries runs the posting engine: validates the voucher,
// regenerates its journal entries and marks it posted. The response carries
// the voucher together with the entries it produced.
func (s *Server) postVoucherEntries(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := s.posting.Post(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	entries, err := s.store.EntriesByVoucher(r.Context(), scope, v.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := struct {
		Voucher voucherResponse `json:"voucher"`
		Entries []entryResponse `json:"entries"`
	}{Voucher: toVoucherResponse(v), Entries: make([]entryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) unpostVoucherEntries(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	v, err := s.posting.Unpost(r.Context(), scope, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toVoucherResponse(v))
}

func (s *Server) postVoucherType(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var in voucherTypeRequest
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
	t := books.VoucherType{
		ID:         uuid.New(),
		BusinessID: in.BusinessID,
		Name:       in.Name,
		Prefix:     in.Prefix,
	}
	created, err := s.store.CreateVoucherType(r.Context(), t)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toVoucherTypeResponse(created))
}

func (s *Server) listVoucherTypes(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	types, err := s.store.ListVoucherTypes(r.Context(), scope)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]voucherTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, toVoucherTypeResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}
