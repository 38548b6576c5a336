package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Mode      string `json:"mode"`
	Cycle     uint64 `json:"cycle"`
	Scheduled int    `json:"scheduled"`
	Faults    uint64 `json:"faults"`
	Journal   string `json:"journal"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.ctrl.Snapshot()

	resp := healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Mode:      s.state.Mode(),
		Cycle:     snap.Cycle,
		Scheduled: len(snap.Commands),
		Faults:    s.ctrl.Faults(),
		Journal:   "disabled",
	}
	if s.journal != nil {
		resp.Journal = "enabled"
	}
	if resp.Faults > 0 {
		resp.Status = "degraded"
	}
	respondOK(w, reqID, resp)
}
