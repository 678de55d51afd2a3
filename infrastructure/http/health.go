package http

import (
	"encoding/json"
	"net/http"
	"time"
)

type localHealth struct {
	Status   string         `json:"status"`
	Storage  string         `json:"storage"`
	Upstream upstreamHealth `json:"upstream"`
}

type upstreamHealth struct {
	Known     bool       `json:"known"`
	Healthy   bool       `json:"healthy"`
	Message   string     `json:"message,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// LocalHealthHandler reports this process, its cart storage and the last
// upstream check. Only a storage failure makes it unhealthy.
func (s *Server) LocalHealthHandler(w http.ResponseWriter, r *http.Request) {
	out := localHealth{Status: "healthy", Storage: "ok"}
	if s.Storage != nil {
		if err := s.Storage(r.Context()); err != nil {
			s.Log.Warn(r.Context(), "health.storage.failed", err)
			out.Status = "unhealthy"
			out.Storage = err.Error()
		}
	}
	if s.Monitor != nil {
		st := s.Monitor.Status()
		out.Upstream = upstreamHealth{Known: st.Known, Healthy: st.Healthy, Message: st.Message}
		if !st.CheckedAt.IsZero() {
			checked := st.CheckedAt
			out.Upstream.CheckedAt = &checked
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if out.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(out)
}
