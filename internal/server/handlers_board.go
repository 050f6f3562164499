package server

import (
	"net/http"
	"strings"

	"novatask/internal/api"
	"novatask/internal/board"
	"novatask/internal/store"
)

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tab, err := board.ParseTab(query.Get("tab"))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidTab))
		return
	}

	tasks, err := s.service.List(r.Context(), store.ListFilter{})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	view := board.Project(tasks, board.Filter{
		Tab:     tab,
		Project: strings.TrimSpace(query.Get("project")),
		UserID:  strings.TrimSpace(query.Get("user")),
	})

	active, err := s.taskResponses(r.Context(), view.Active)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	done, err := s.taskResponses(r.Context(), view.Done)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.BoardResponse{Tab: string(tab), Active: active, Done: done})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.List(r.Context(), store.ListFilter{})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	stats := board.ComputeStats(tasks, s.projects)
	s.writeJSON(w, http.StatusOK, api.StatsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Reviewing: stats.Reviewing,
		Verified:  stats.Verified,
		Projects:  stats.Projects,
	})
}
