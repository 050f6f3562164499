package models

import (
	"fmt"
	"strings"
)

// TaskStatus defines the workflow stages of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusVerified  TaskStatus = "verified"
)

// TaskPriority defines task urgency.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"

	DefaultPriority = PriorityMedium
)

var statusRanks = map[TaskStatus]int{
	StatusPending:   2,
	StatusCompleted: 1,
	StatusVerified:  0,
}

var priorityRanks = map[TaskPriority]int{
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := statusRanks[status]
	return ok
}

func IsValidTaskPriority(priority TaskPriority) bool {
	_, ok := priorityRanks[priority]
	return ok
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidTaskStatus(value) {
		return "", fmt.Errorf("invalid status: %s (want one of %s)", value, strings.Join(TaskStatusStrings(), ", "))
	}
	return value, nil
}

func ParseTaskPriority(raw string) (TaskPriority, error) {
	value := TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("priority is required")
	}
	if !IsValidTaskPriority(value) {
		return "", fmt.Errorf("invalid priority: %s", value)
	}
	return value, nil
}

// StatusRank orders statuses for display; unknown values rank below verified.
func StatusRank(status string) int {
	rank, ok := statusRanks[TaskStatus(status)]
	if !ok {
		return -1
	}
	return rank
}

// PriorityRank orders priorities for display; unknown values rank lowest.
func PriorityRank(priority string) int {
	return priorityRanks[TaskPriority(priority)]
}

// TaskStatusStrings lists statuses in workflow order.
func TaskStatusStrings() []string {
	return []string{string(StatusPending), string(StatusCompleted), string(StatusVerified)}
}
