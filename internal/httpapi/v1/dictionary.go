package v1

import (
	"net/http"

	"github.com/veribooks/books/internal/books"
	"github.com/veribooks/books/internal/dictionary"
)

// GET /v1/dictionary/groups?nature=
func (s *Server) getGroupsDictionary(w http.ResponseWriter, r *http.Request) {
	var n *books.Nature
	if raw := r.URL.Query().Get("nature"); raw != "" {
		nn := books.Nature(raw)
		if !nn.Valid() {
			badRequest(w, "unknown nature")
			return
		}
		n = &nn
	}
	type natureItem struct {
		Nature books.Nature          `json:"nature"`
		Groups []dictionary.GroupDef `json:"groups"`
	}
	out := struct {
		Items []natureItem `json:"items"`
	}{Items: []natureItem{}}
	for _, nat := range dictionary.Natures() {
		if n != nil && *n != nat {
			continue
		}
		out.Items = append(out.Items, natureItem{Nature: nat, Groups: dictionary.GroupsFor(&nat)})
	}
	toJSON(w, http.StatusOK, out)
}
