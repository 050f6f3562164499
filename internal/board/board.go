// Package board derives the dashboard, project and archive views from a task snapshot.
package board

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"novatask/internal/models"
)

// Tab names one of the task views.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabProjects  Tab = "projects"
	TabCompleted Tab = "completed"

	// AllProjects is the project filter value that disables project filtering.
	AllProjects = "All"
)

// Filter is the current view selection.
type Filter struct {
	Tab     Tab
	Project string
	UserID  string
}

// Board holds the two ordered task sequences rendered for a view.
type Board struct {
	Active []models.Task
	Done   []models.Task
}

// ParseTab normalizes a tab name; empty selects the dashboard.
func ParseTab(raw string) (Tab, error) {
	value := Tab(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "":
		return TabDashboard, nil
	case TabDashboard, TabProjects, TabCompleted:
		return value, nil
	default:
		return "", fmt.Errorf("invalid tab: %s", value)
	}
}

// Project computes the active and done sequences for filter. The input slice is not modified.
func Project(tasks []models.Task, filter Filter) Board {
	tab := filter.Tab
	if tab == "" {
		tab = TabDashboard
	}

	selected := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if filter.UserID != "" && !task.Involves(filter.UserID) {
			continue
		}
		if projectFilterApplies(tab) && projectFilterSet(filter.Project) && task.ProjectName != filter.Project {
			continue
		}
		selected = append(selected, task)
	}

	board := Board{Active: []models.Task{}, Done: []models.Task{}}
	for _, task := range selected {
		if task.Status == string(models.StatusVerified) {
			board.Done = append(board.Done, task)
			continue
		}
		if tab != TabCompleted {
			board.Active = append(board.Active, task)
		}
	}

	sortActive(board.Active)
	sortDone(board.Done)
	return board
}

func projectFilterApplies(tab Tab) bool {
	return tab == TabProjects || tab == TabCompleted
}

func projectFilterSet(project string) bool {
	project = strings.TrimSpace(project)
	return project != "" && project != AllProjects
}

func sortActive(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if pa, pb := models.PriorityRank(a.Priority), models.PriorityRank(b.Priority); pa != pb {
			return pa > pb
		}
		if sa, sb := models.StatusRank(a.Status), models.StatusRank(b.Status); sa != sb {
			return sa > sb
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func sortDone(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return verifiedAtOrEpoch(tasks[i]).After(verifiedAtOrEpoch(tasks[j]))
	})
}

func verifiedAtOrEpoch(task models.Task) time.Time {
	if task.VerifiedAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *task.VerifiedAt
}
