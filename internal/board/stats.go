package board

import "novatask/internal/models"

// Stats summarizes the task snapshot for the dashboard header.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewing int `json:"reviewing"`
	Verified  int `json:"verified"`
	Projects  int `json:"projects"`
}

// ComputeStats counts tasks per workflow stage.
func ComputeStats(tasks []models.Task, projects []string) Stats {
	stats := Stats{Total: len(tasks), Projects: len(projects)}
	for _, task := range tasks {
		switch models.TaskStatus(task.Status) {
		case models.StatusPending:
			stats.Pending++
		case models.StatusCompleted:
			stats.Reviewing++
		case models.StatusVerified:
			stats.Verified++
		}
	}
	return stats
}
