package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "robocmd API",
		Version:     "v1",
		Description: "Command scheduler dashboard: inspect the running scheduler and queue control requests",
		Endpoints: []endpointInfo{
			{"/api/v1/health", []string{"GET"}, "Loop health, robot mode and fault count"},
			{"/api/v1/scheduler", []string{"GET"}, "Last published scheduler snapshot"},
			{"/api/v1/scheduler/cancel-all", []string{"POST"}, "Queue cancellation of every scheduled command"},
			{"/api/v1/commands/{name}/cancel", []string{"POST"}, "Queue cancellation of one scheduled command"},
			{"/api/v1/robot/enable", []string{"POST"}, "Queue a switch to enabled mode"},
			{"/api/v1/robot/disable", []string{"POST"}, "Queue a switch to disabled mode"},
			{"/api/v1/journal", []string{"GET"}, "Lifecycle journal entries. Accepts ?session=, ?kind=, ?limit=, ?offset="},
			{"/api/v1/journal/sessions", []string{"GET"}, "Recorded journal sessions, newest first"},
			{"/api/v1/sse/scheduler", []string{"GET"}, "Server-Sent Events stream of scheduler snapshots"},
		},
	})
}
