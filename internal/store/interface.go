package store

import (
	"context"
	"errors"

	"novatask/internal/models"
)

// ErrNotFound is returned by MutateTask when the task does not exist.
var ErrNotFound = errors.New("not found")

// TaskStore abstracts task storage backends.
type TaskStore interface {
	TaskExists(id string) (bool, error)
	CreateTask(ctx context.Context, task *models.Task) error
	CreateTasks(ctx context.Context, tasks []*models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	MutateTask(ctx context.Context, id string, mutate func(*models.Task) error) (*models.Task, error)
	ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error)
	CountTasksByStatus(ctx context.Context) (map[string]int, error)
}

// UserStore abstracts user storage backends.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

var (
	_ TaskStore = (*Store)(nil)
	_ UserStore = (*Store)(nil)
)
