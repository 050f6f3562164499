package models

import "time"

// Task represents one unit of work tracked by novatask.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ProjectName   string     `json:"project_name"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	ResponsibleID string     `json:"responsible_id,omitempty"`
	ExecutorIDs   []string   `json:"executor_ids"`
	Images        []string   `json:"images"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

// HasExecutor reports whether userID is one of the task executors.
func (t Task) HasExecutor(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range t.ExecutorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Involves reports whether userID executes or verifies the task.
func (t Task) Involves(userID string) bool {
	return t.HasExecutor(userID) || (userID != "" && t.ResponsibleID == userID)
}
