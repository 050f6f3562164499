package api

import "novatask/internal/models"

// TaskCreateRequest defines the payload for creating a task.
// A nil ResponsibleID selects the configured default verifier.
type TaskCreateRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	ProjectName   string   `json:"project_name"`
	Priority      string   `json:"priority,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	ResponsibleID *string  `json:"responsible_id,omitempty"`
	ExecutorIDs   []string `json:"executor_ids,omitempty"`
	Images        []string `json:"images,omitempty"`
}

// TaskUpdateRequest defines the editable subset of a task.
// An empty DueDate or ResponsibleID clears the field; so does an explicit
// null, which the server applies before decoding into this struct.
type TaskUpdateRequest struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ProjectName   *string   `json:"project_name,omitempty"`
	Priority      *string   `json:"priority,omitempty"`
	DueDate       *string   `json:"due_date,omitempty"`
	ResponsibleID *string   `json:"responsible_id,omitempty"`
	ExecutorIDs   *[]string `json:"executor_ids,omitempty"`
	Images        *[]string `json:"images,omitempty"`
}

// TransitionRequest names the user performing a workflow transition.
type TransitionRequest struct {
	ActorID string `json:"actor_id"`
}

// TaskResponse wraps a task with resolved user summaries.
type TaskResponse struct {
	models.Task
	Responsible *models.User  `json:"responsible,omitempty"`
	Executors   []models.User `json:"executors"`
}

// BoardResponse is the response from GET /v1/board.
type BoardResponse struct {
	Tab    string         `json:"tab"`
	Active []TaskResponse `json:"active"`
	Done   []TaskResponse `json:"done"`
}

// StatsResponse is the response from GET /v1/stats.
type StatsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewing int `json:"reviewing"`
	Verified  int `json:"verified"`
	Projects  int `json:"projects"`
}

// ImageUploadResponse is the response from POST /v1/tasks/{id}/images.
type ImageUploadResponse struct {
	Key       string       `json:"key"`
	SHA256    string       `json:"sha256"`
	SizeBytes int64        `json:"size_bytes"`
	MediaType string       `json:"media_type"`
	Task      TaskResponse `json:"task"`
}

// InfoResponse is the response from GET /v1/info.
type InfoResponse struct {
	IDPrefix      string         `json:"id_prefix"`
	SchemaVersion int            `json:"schema_version"`
	TaskCounts    map[string]int `json:"task_counts"`
	TotalTasks    int            `json:"total_tasks"`
	Projects      []string       `json:"projects"`
}
