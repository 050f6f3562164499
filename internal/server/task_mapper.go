package server

import (
	"context"

	"novatask/internal/api"
	"novatask/internal/models"
)

// taskResponses attaches resolved responsible and executor summaries to tasks.
func (s *Server) taskResponses(ctx context.Context, tasks []models.Task) ([]api.TaskResponse, error) {
	ids := referencedUserIDs(tasks)
	users, err := s.users.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]api.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task, users))
	}
	return out, nil
}

func (s *Server) taskResponse(ctx context.Context, task models.Task) (api.TaskResponse, error) {
	resps, err := s.taskResponses(ctx, []models.Task{task})
	if err != nil {
		return api.TaskResponse{}, err
	}
	return resps[0], nil
}

func toTaskResponse(task models.Task, users map[string]models.User) api.TaskResponse {
	if task.ExecutorIDs == nil {
		task.ExecutorIDs = []string{}
	}
	if task.Images == nil {
		task.Images = []string{}
	}
	resp := api.TaskResponse{Task: task, Executors: make([]models.User, 0, len(task.ExecutorIDs))}
	if task.ResponsibleID != "" {
		responsible := lookupUser(users, task.ResponsibleID)
		resp.Responsible = &responsible
	}
	for _, id := range task.ExecutorIDs {
		resp.Executors = append(resp.Executors, lookupUser(users, id))
	}
	return resp
}

func lookupUser(users map[string]models.User, id string) models.User {
	if user, ok := users[id]; ok {
		return user
	}
	return models.UnknownUser(id)
}

func referencedUserIDs(tasks []models.Task) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, task := range tasks {
		add(task.ResponsibleID)
		for _, id := range task.ExecutorIDs {
			add(id)
		}
	}
	return ids
}
