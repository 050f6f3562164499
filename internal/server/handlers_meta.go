package server

import (
	"net/http"

	"novatask/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StoreInfo(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		IDPrefix:      s.idPrefix,
		SchemaVersion: info.SchemaVersion,
		TaskCounts:    info.TaskCounts,
		TotalTasks:    info.TotalTasks,
		Projects:      s.projects,
	}

	s.writeJSON(w, http.StatusOK, resp)
}
