package v1

import (
	"net/http"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz probes the store when it can be probed; otherwise ready means up.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if rc, ok := s.store.(ReadyChecker); ok {
		if err := rc.Ready(r.Context()); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "store not ready", "not_ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
