package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/me/robocmd/pkg/model"
)

// GET /api/v1/journal
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.journal == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("journal is not enabled"))
		return
	}

	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if opts.Kind != "" {
		if !model.LifecycleKind(strings.ToUpper(opts.Kind)).IsValid() {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid kind",
				model.FieldError{Field: "kind", Message: "must be INITIALIZE, EXECUTE, FINISH or INTERRUPT"}))
			return
		}
	}

	entries, total, err := s.journal.List(r.Context(), r.URL.Query().Get("session"), opts)
	if err != nil {
		s.logger.Error("list journal", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	respondList(w, reqID, entries, model.NewPagination(total, opts))
}

// GET /api/v1/journal/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.journal == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("journal is not enabled"))
		return
	}

	sessions, err := s.journal.Sessions(r.Context())
	if err != nil {
		s.logger.Error("list journal sessions", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if sessions == nil {
		sessions = []model.JournalSession{}
	}
	respondOK(w, reqID, sessions)
}

func parseListOptions(r *http.Request) (model.ListOptions, *model.APIError) {
	opts := model.DefaultListOptions()
	q := r.URL.Query()

	var details []model.FieldError
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "limit", Message: "must be an integer"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "offset", Message: "must be an integer"})
		}
		opts.Offset = n
	}
	if len(details) > 0 {
		return opts, model.NewValidationError("invalid pagination", details...)
	}
	opts.Kind = q.Get("kind")
	opts.Clamp()
	return opts, nil
}
