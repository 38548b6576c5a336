package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleSSEScheduler streams scheduler snapshots via Server-Sent Events. A
// snapshot event is sent whenever the published cycle changes.
// GET /api/v1/sse/scheduler
func (s *Server) handleSSEScheduler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	snap := s.ctrl.Snapshot()
	if err := sendSSEEvent(w, flusher, "snapshot", snap); err != nil {
		s.logger.Debug("sse client disconnected", "error", err)
		return
	}
	lastCycle := snap.Cycle

	ticker := time.NewTicker(s.config.SSEInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snap = s.ctrl.Snapshot()
			if snap.Cycle == lastCycle {
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
				continue
			}
			if err := sendSSEEvent(w, flusher, "snapshot", snap); err != nil {
				s.logger.Debug("sse client disconnected", "error", err)
				return
			}
			lastCycle = snap.Cycle
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
