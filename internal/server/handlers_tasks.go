package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"novatask/internal/api"
	"novatask/internal/models"
	"novatask/internal/store"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	task, err := s.service.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTask(w, r, http.StatusCreated, task)
}

func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	var reqs []api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &reqs) {
		return
	}

	tasks, err := s.service.BatchCreate(r.Context(), reqs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTasks(w, r, http.StatusCreated, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	task, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTask(w, r, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if !s.decodeJSONReq(w, r, &raw) {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return
	}
	if err := checkUpdateFields(fields); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var req api.TaskUpdateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return
	}
	if err := applyUpdateNulls(fields, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	task, err := s.service.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTask(w, r, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	tasks, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTasks(w, r, http.StatusOK, tasks)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Complete)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Verify)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.Reject)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, id, actorID string) (models.Task, error)) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.TransitionRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	task, err := step(r.Context(), id, req.ActorID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeTask(w, r, http.StatusOK, task)
}

func (s *Server) writeTask(w http.ResponseWriter, r *http.Request, status int, task models.Task) {
	resp, err := s.taskResponse(r.Context(), task)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeTasks(w http.ResponseWriter, r *http.Request, status int, tasks []models.Task) {
	resps, err := s.taskResponses(r.Context(), tasks)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, status, resps)
}

func listFilterFromQuery(r *http.Request) (store.ListFilter, error) {
	query := r.URL.Query()
	filter := store.ListFilter{
		Project:       strings.TrimSpace(query.Get("project")),
		ResponsibleID: strings.TrimSpace(query.Get("responsible")),
	}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		statuses, err := normalizeStatuses(strings.Split(raw, ","))
		if err != nil {
			return filter, err
		}
		filter.Statuses = statuses
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, badRequestCode(fmt.Errorf("invalid %s", key), ErrCodeInvalidQuery)
	}
	if parsed < 0 {
		return 0, badRequestCode(fmt.Errorf("%s must be >= 0", key), ErrCodeInvalidQuery)
	}
	return parsed, nil
}
