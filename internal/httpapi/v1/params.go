package v1

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veribooks/books/internal/books"
)

// scopeFromQuery resolves the business scope every tenant route requires.
// Writes a 400 and returns false when business_id is missing or malformed.
func scopeFromQuery(w http.ResponseWriter, r *http.Request) (books.Scope, bool) {
	raw := r.URL.Query().Get("business_id")
	if raw == "" {
		badRequest(w, "business_id is required")
		return books.Scope{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "business_id must be a UUID")
		return books.Scope{}, false
	}
	return books.Scope{BusinessID: id}, true
}

// pathID parses the named chi URL parameter as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter. nil means absent.
func queryUUID(w http.ResponseWriter, r *http.Request, key string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, key+" must be a UUID")
		return nil, false
	}
	return &id, true
}

// queryTime parses an optional date query parameter. Accepts RFC3339 or a
// plain 2006-01-02 date. nil means absent.
func queryTime(w http.ResponseWriter, r *http.Request, key string) (*time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = t.UTC()
		return &t, true
	}
	badRequest(w, key+" must be RFC3339 or YYYY-MM-DD")
	return nil, false
}
