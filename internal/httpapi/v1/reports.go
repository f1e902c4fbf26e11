// Report handlers: balance, running-balance ledger, trial balance, day book,
// cash book.
package v1

import (
	"net/http"
)

func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	asOf, ok := queryTime(w, r, "as_of")
	if !ok {
		return
	}
	yearID, ok := queryUUID(w, r, "financial_year_id")
	if !ok {
		return
	}
	b, err := s.reporting.Balance(r.Context(), scope, id, asOf, yearID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toBalanceResponse(b))
}

func (s *Server) getAccountLedger(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
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
	yearID, ok := queryUUID(w, r, "financial_year_id")
	if !ok {
		return
	}
	l, err := s.reporting.Ledger(r.Context(), scope, id, from, to, yearID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toLedgerResponse(l))
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}
	asOf, ok := queryTime(w, r, "as_of")
	if !ok {
		return
	}
	yearID, ok := queryUUID(w, r, "financial_year_id")
	if !ok {
		return
	}
	tb, err := s.reporting.TrialBalance(r.Context(), scope, asOf, yearID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTrialBalanceResponse(tb))
}

func (s *Server) dayBook(w http.ResponseWriter, r *http.Request) {
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
	lines, err := s.reporting.DayBook(r.Context(), scope, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toDayBookResponse(lines))
}

func (s *Server) cashBook(w http.ResponseWriter, r *http.Request) {
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
	ledgers, err := s.reporting.CashBook(r.Context(), scope, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]ledgerResponse, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, toLedgerResponse(l))
	}
	toJSON(w, http.StatusOK, out)
}
