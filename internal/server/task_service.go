package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"novatask/internal/api"
	"novatask/internal/config"
	"novatask/internal/models"
	"novatask/internal/store"
	"novatask/internal/workflow"
)

// TaskService centralizes task validation, defaults and workflow transitions.
type TaskService struct {
	store           store.TaskStore
	users           *UserService
	idPrefix        string
	projects        workflow.Projects
	defaultVerifier string
	now             func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(taskStore store.TaskStore, users *UserService, idPrefix string, projects []string, defaultVerifier string) *TaskService {
	return &TaskService{
		store:           taskStore,
		users:           users,
		idPrefix:        idPrefix,
		projects:        workflow.Projects(projects),
		defaultVerifier: strings.TrimSpace(defaultVerifier),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a pending task from a request.
func (s *TaskService) Create(ctx context.Context, req api.TaskCreateRequest) (models.Task, error) {
	tasks, err := s.BatchCreate(ctx, []api.TaskCreateRequest{req})
	if err != nil {
		return models.Task{}, err
	}
	return tasks[0], nil
}

// BatchCreate validates every request before inserting any task.
func (s *TaskService) BatchCreate(ctx context.Context, reqs []api.TaskCreateRequest) ([]models.Task, error) {
	if len(reqs) == 0 {
		return nil, badRequestCode(fmt.Errorf("at least one task is required"), ErrCodeMissingRequired)
	}

	now := s.now()
	defaultVerifierID, err := s.defaultVerifierID(ctx)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]struct{}, len(reqs))
	exists := func(id string) (bool, error) {
		if _, ok := pending[id]; ok {
			return true, nil
		}
		return s.store.TaskExists(id)
	}

	tasks := make([]*models.Task, 0, len(reqs))
	for i, req := range reqs {
		task, err := s.buildTask(req, now, defaultVerifierID)
		if err != nil {
			if len(reqs) > 1 {
				return nil, fmt.Errorf("task %d: %w", i+1, err)
			}
			return nil, err
		}
		id, err := store.GenerateID(s.idPrefix, exists)
		if err != nil {
			return nil, err
		}
		pending[id] = struct{}{}
		task.ID = id
		tasks = append(tasks, task)
	}

	if err := s.store.CreateTasks(ctx, tasks); err != nil {
		if isUniqueConstraint(err) {
			return nil, conflictCode(fmt.Errorf("id already exists"), ErrCodeTaskIDExists)
		}
		return nil, err
	}

	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		out[i] = *task
	}
	return out, nil
}

func (s *TaskService) buildTask(req api.TaskCreateRequest, now time.Time, defaultVerifierID string) (*models.Task, error) {
	title, err := workflow.ValidateTitle(req.Title)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeMissingRequired)
	}
	project, err := workflow.ValidateProject(s.projects, req.ProjectName)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidProject)
	}
	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	images, err := normalizeImageRefs(req.Images)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		ProjectName: project,
		Status:      string(models.StatusPending),
		Priority:    priority,
		ExecutorIDs: workflow.NormalizeUserIDs(req.ExecutorIDs),
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if strings.TrimSpace(req.DueDate) != "" {
		due, err := parseFlexibleTime(req.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}

	if req.ResponsibleID != nil {
		task.ResponsibleID = strings.TrimSpace(*req.ResponsibleID)
	} else {
		task.ResponsibleID = defaultVerifierID
	}

	return task, nil
}

// Seed creates the configured demo tasks when the repository holds no tasks
// yet. User names are resolved after user seeding; an unknown name fails.
func (s *TaskService) Seed(ctx context.Context, seeds []config.TaskSeed) (int, error) {
	if len(seeds) == 0 {
		return 0, nil
	}
	existing, err := s.store.ListTasks(ctx, store.ListFilter{Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	reqs := make([]api.TaskCreateRequest, 0, len(seeds))
	for _, seed := range seeds {
		req := api.TaskCreateRequest{
			Title:       seed.Title,
			ProjectName: seed.Project,
			Priority:    seed.Priority,
			Description: seed.Description,
		}
		if seed.Verifier != "" {
			id, err := s.userIDByName(ctx, seed.Verifier)
			if err != nil {
				return 0, fmt.Errorf("seed task %q: %w", seed.Title, err)
			}
			req.ResponsibleID = &id
		}
		for _, name := range seed.Executors {
			id, err := s.userIDByName(ctx, name)
			if err != nil {
				return 0, fmt.Errorf("seed task %q: %w", seed.Title, err)
			}
			req.ExecutorIDs = append(req.ExecutorIDs, id)
		}
		reqs = append(reqs, req)
	}

	tasks, err := s.BatchCreate(ctx, reqs)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func (s *TaskService) userIDByName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	user, err := s.users.store.GetUserByName(ctx, name)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("unknown user %q", name)
	}
	return user.ID, nil
}

// defaultVerifierID resolves the configured default verifier name, or "" when
// none is configured or the user has not been created yet.
func (s *TaskService) defaultVerifierID(ctx context.Context) (string, error) {
	if s.defaultVerifier == "" || s.users == nil {
		return "", nil
	}
	user, err := s.users.store.GetUserByName(ctx, s.defaultVerifier)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.ID, nil
}

// Get returns one task.
func (s *TaskService) Get(ctx context.Context, id string) (models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if task == nil {
		return models.Task{}, notFound(fmt.Errorf("task not found: %s", id))
	}
	return *task, nil
}

// List returns tasks newest first.
func (s *TaskService) List(ctx context.Context, filter store.ListFilter) ([]models.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// Complete marks a pending task as done by one of its executors.
func (s *TaskService) Complete(ctx context.Context, id, actorID string) (models.Task, error) {
	return s.transition(ctx, id, actorID, workflow.Complete)
}

// Verify accepts a completed task on behalf of its verifier.
func (s *TaskService) Verify(ctx context.Context, id, actorID string) (models.Task, error) {
	return s.transition(ctx, id, actorID, workflow.Verify)
}

// Reject returns a completed task to pending on behalf of its verifier.
func (s *TaskService) Reject(ctx context.Context, id, actorID string) (models.Task, error) {
	return s.transition(ctx, id, actorID, workflow.Reject)
}

func (s *TaskService) transition(ctx context.Context, id, actorID string, step func(*models.Task, string, time.Time) error) (models.Task, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return models.Task{}, badRequestCode(fmt.Errorf("actor_id is required"), ErrCodeMissingRequired)
	}
	return s.mutate(ctx, id, func(task *models.Task) error {
		return step(task, actorID, s.now())
	})
}

// mutate applies fn inside the store transaction and refuses to commit a task
// whose completion or verification times disagree with its status.
func (s *TaskService) mutate(ctx context.Context, id string, fn func(*models.Task) error) (models.Task, error) {
	task, err := s.store.MutateTask(ctx, id, func(task *models.Task) error {
		if err := fn(task); err != nil {
			return err
		}
		if err := workflow.CheckTimestamps(*task); err != nil {
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return *task, nil
}

// Update applies the editable subset of fields. Status and timestamps are
// never touched here.
func (s *TaskService) Update(ctx context.Context, id string, req api.TaskUpdateRequest) (models.Task, error) {
	if isEmptyUpdate(req) {
		return models.Task{}, badRequestCode(fmt.Errorf("no fields to update"), ErrCodeMissingRequired)
	}
	return s.mutate(ctx, id, func(task *models.Task) error {
		if err := s.applyUpdate(task, req); err != nil {
			return err
		}
		task.UpdatedAt = s.now()
		return nil
	})
}

func (s *TaskService) applyUpdate(task *models.Task, req api.TaskUpdateRequest) error {
	if req.Title != nil {
		title, err := workflow.ValidateTitle(*req.Title)
		if err != nil {
			return badRequestCode(err, ErrCodeMissingRequired)
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.ProjectName != nil {
		project, err := workflow.ValidateProject(s.projects, *req.ProjectName)
		if err != nil {
			return badRequestCode(err, ErrCodeInvalidProject)
		}
		task.ProjectName = project
	}
	if req.Priority != nil {
		if strings.TrimSpace(*req.Priority) == "" {
			return badRequestCode(fmt.Errorf("priority cannot be empty"), ErrCodeInvalidPriority)
		}
		priority, err := normalizePriority(*req.Priority)
		if err != nil {
			return err
		}
		task.Priority = priority
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			task.DueDate = nil
		} else {
			due, err := parseFlexibleTime(*req.DueDate)
			if err != nil {
				return err
			}
			task.DueDate = &due
		}
	}
	if req.ResponsibleID != nil {
		task.ResponsibleID = strings.TrimSpace(*req.ResponsibleID)
	}
	if req.ExecutorIDs != nil {
		task.ExecutorIDs = workflow.NormalizeUserIDs(*req.ExecutorIDs)
	}
	if req.Images != nil {
		images, err := normalizeImageRefs(*req.Images)
		if err != nil {
			return err
		}
		task.Images = images
	}
	return nil
}

// AttachImage appends ref to the task images unless it is already present.
func (s *TaskService) AttachImage(ctx context.Context, id, ref string) (models.Task, error) {
	return s.mutate(ctx, id, func(task *models.Task) error {
		for _, existing := range task.Images {
			if existing == ref {
				return nil
			}
		}
		task.Images = append(task.Images, ref)
		task.UpdatedAt = s.now()
		return nil
	})
}

func isEmptyUpdate(req api.TaskUpdateRequest) bool {
	return req.Title == nil &&
		req.Description == nil &&
		req.ProjectName == nil &&
		req.Priority == nil &&
		req.DueDate == nil &&
		req.ResponsibleID == nil &&
		req.ExecutorIDs == nil &&
		req.Images == nil
}
