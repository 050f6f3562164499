package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"novatask/internal/api"
	"novatask/internal/format"
	"novatask/internal/models"
)

const boardSeparator = "────────────────────────────────────────"

var outputFormatter format.Formatter = format.JSONFormatter{Indent: true}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeTaskList(tasks []api.TaskResponse) error {
	for _, task := range tasks {
		if err := writePlain("%s\n", formatTaskLine(task)); err != nil {
			return err
		}
	}
	return nil
}

// writeBoard prints active tasks, then a separator when both lists are
// non-empty, then done tasks.
func writeBoard(board api.BoardResponse) error {
	if err := writeTaskList(board.Active); err != nil {
		return err
	}
	if len(board.Active) > 0 && len(board.Done) > 0 {
		if err := writePlain("%s\n", boardSeparator); err != nil {
			return err
		}
	}
	return writeTaskList(board.Done)
}

func writeTaskDetail(task api.TaskResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("project: %s", task.ProjectName),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("priority: %s", task.Priority),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}

	if task.DueDate != nil {
		lines = append(lines, fmt.Sprintf("due_date: %s", task.DueDate.UTC().Format("2006-01-02")))
	}
	if task.CompletedAt != nil {
		lines = append(lines, fmt.Sprintf("completed_at: %s", formatTime(*task.CompletedAt)))
	}
	if task.VerifiedAt != nil {
		lines = append(lines, fmt.Sprintf("verified_at: %s", formatTime(*task.VerifiedAt)))
	}
	if task.Responsible != nil {
		lines = append(lines, fmt.Sprintf("verifier: %s", formatUser(*task.Responsible)))
	}
	if len(task.Executors) > 0 {
		names := make([]string, 0, len(task.Executors))
		for _, user := range task.Executors {
			names = append(names, formatUser(user))
		}
		lines = append(lines, fmt.Sprintf("executors: %s", strings.Join(names, ", ")))
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", task.Description))
	}
	if len(task.Images) > 0 {
		lines = append(lines, "images:")
		for _, ref := range task.Images {
			lines = append(lines, "  - "+ref)
		}
	}

	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeUserList(users []api.UserResponse) error {
	for _, user := range users {
		line := fmt.Sprintf("%s  %s", user.ID, user.Name)
		if user.Role != "" {
			line += " (" + user.Role + ")"
		}
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func formatTaskLine(task api.TaskResponse) string {
	return fmt.Sprintf("%s %s [%s] [%s] - %s", statusIcon(task.Status), task.ID, task.Priority, task.ProjectName, task.Title)
}

func formatUser(user models.User) string {
	if user.IsUnknown() {
		return fmt.Sprintf("%s (%s)", models.UnknownUserName, user.ID)
	}
	return user.Name
}

func statusIcon(status string) string {
	switch models.TaskStatus(status) {
	case models.StatusCompleted:
		return "◐"
	case models.StatusVerified:
		return "●"
	default:
		return "○"
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
