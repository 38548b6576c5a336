package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/robocmd/internal/loop"
	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/model"
)

// acceptedResponse acknowledges a request queued for the next cycle.
type acceptedResponse struct {
	Action  string `json:"action"`
	Command string `json:"command,omitempty"`
	Cycle   uint64 `json:"queued_at_cycle"`
}

// GET /api/v1/scheduler
func (s *Server) handleGetScheduler(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.ctrl.Snapshot())
}

// POST /api/v1/scheduler/cancel-all
func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	s.submit(w, reqID, (*scheduler.CommandScheduler).CancelAll, acceptedResponse{Action: "cancel_all"})
}

// POST /api/v1/commands/{name}/cancel
func (s *Server) handleCancelCommand(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if !s.ctrl.Snapshot().IsScheduled(name) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("scheduled command", name))
		return
	}
	s.submit(w, reqID, cancelByName(name), acceptedResponse{Action: "cancel", Command: name})
}

// POST /api/v1/robot/enable, /api/v1/robot/disable
func (s *Server) handleSetMode(enabled bool) http.HandlerFunc {
	action := "disable"
	if enabled {
		action = "enable"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := RequestIDFromContext(r.Context())
		req := func(*scheduler.CommandScheduler) error {
			if enabled {
				s.state.Enable()
			} else {
				s.state.Disable()
			}
			return nil
		}
		s.submit(w, reqID, req, acceptedResponse{Action: action})
	}
}

func (s *Server) submit(w http.ResponseWriter, reqID string, req loop.Request, ack acceptedResponse) {
	ack.Cycle = s.ctrl.Snapshot().Cycle
	err := s.ctrl.Submit(req)
	switch {
	case err == nil:
		respondAccepted(w, reqID, ack)
	case errors.Is(err, loop.ErrMailboxFull), errors.Is(err, loop.ErrStopped):
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError(err.Error()))
	default:
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
	}
}

// cancelByName cancels every scheduled command called name. A command that
// finished before the request ran is not an error.
func cancelByName(name string) loop.Request {
	return func(sched *scheduler.CommandScheduler) error {
		var targets []command.Command
		for _, cmd := range sched.ScheduledCommands() {
			if cmd.Name() == name {
				targets = append(targets, cmd)
			}
		}
		return sched.Cancel(targets...)
	}
}
