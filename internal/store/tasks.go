package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"novatask/internal/models"
)

// ListFilter narrows a task listing. Zero values mean no constraint.
type ListFilter struct {
	Statuses      []string
	Project       string
	ResponsibleID string
	Limit         int
	Offset        int
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const taskColumns = "id, title, description, project_name, status, priority, responsible_id, created_at, updated_at, due_date, completed_at, verified_at"

// CreateTask inserts a task with its executors and images.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	return s.CreateTasks(ctx, []*models.Task{task})
}

// CreateTasks inserts all tasks in one transaction, or none of them.
func (s *Store) CreateTasks(ctx context.Context, tasks []*models.Task) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, task := range tasks {
		if task == nil {
			return fmt.Errorf("task is required")
		}
		if err = insertTask(ctx, tx, task); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTask returns a task by id, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return getTask(ctx, s.db, id)
}

// MutateTask loads a task, applies mutate and writes the result back in a
// single transaction. When mutate returns an error nothing is written.
func (s *Store) MutateTask(ctx context.Context, id string, mutate func(*models.Task) error) (_ *models.Task, err error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		err = fmt.Errorf("task %s: %w", id, ErrNotFound)
		return nil, err
	}

	if err = mutate(task); err != nil {
		return nil, err
	}
	task.ID = id

	if err = updateTask(ctx, tx, task); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns tasks newest first.
func (s *Store) ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := loadChildrenForTasks(ctx, s.db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountTasksByStatus returns the number of tasks per status.
func (s *Store) CountTasksByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func buildListQuery(filter ListFilter) (string, []any) {
	query := "SELECT " + taskColumns + " FROM tasks"
	where := []string{}
	args := []any{}

	if len(filter.Statuses) > 0 {
		where = append(where, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.Project != "" {
		where = append(where, "project_name = ?")
		args = append(args, filter.Project)
	}
	if filter.ResponsibleID != "" {
		where = append(where, "responsible_id = ?")
		args = append(args, filter.ResponsibleID)
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	// rowid breaks ties so later inserts come first.
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return query, args
}

func insertTask(ctx context.Context, q queryer, task *models.Task) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Title,
		nullIfEmpty(task.Description),
		task.ProjectName,
		task.Status,
		task.Priority,
		nullIfEmpty(task.ResponsibleID),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		nullTime(task.VerifiedAt),
	)
	if err != nil {
		return err
	}
	return insertChildren(ctx, q, task)
}

func updateTask(ctx context.Context, q queryer, task *models.Task) error {
	_, err := q.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, project_name = ?, status = ?, priority = ?, responsible_id = ?,
			updated_at = ?, due_date = ?, completed_at = ?, verified_at = ?
		WHERE id = ?
	`,
		task.Title,
		nullIfEmpty(task.Description),
		task.ProjectName,
		task.Status,
		task.Priority,
		nullIfEmpty(task.ResponsibleID),
		formatTime(task.UpdatedAt),
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		nullTime(task.VerifiedAt),
		task.ID,
	)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM task_executors WHERE task_id = ?", task.ID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM task_images WHERE task_id = ?", task.ID); err != nil {
		return err
	}
	return insertChildren(ctx, q, task)
}

func insertChildren(ctx context.Context, q queryer, task *models.Task) error {
	if len(task.ExecutorIDs) > 0 {
		args := make([]any, 0, len(task.ExecutorIDs)*3)
		for i, userID := range task.ExecutorIDs {
			args = append(args, task.ID, userID, i)
		}
		query := "INSERT OR IGNORE INTO task_executors (task_id, user_id, position) VALUES " + tupleValues(len(task.ExecutorIDs), 3)
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(task.Images) > 0 {
		args := make([]any, 0, len(task.Images)*3)
		for i, ref := range task.Images {
			args = append(args, task.ID, i, ref)
		}
		query := "INSERT INTO task_images (task_id, position, ref) VALUES " + tupleValues(len(task.Images), 3)
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func getTask(ctx context.Context, q queryer, id string) (*models.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil || task == nil {
		return task, err
	}
	tasks := []models.Task{*task}
	if err := loadChildrenForTasks(ctx, q, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// loadChildrenForTasks fills executor and image lists in place.
func loadChildrenForTasks(ctx context.Context, q queryer, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	index := make(map[string]int, len(tasks))
	ids := make([]any, 0, len(tasks))
	for i := range tasks {
		tasks[i].ExecutorIDs = []string{}
		tasks[i].Images = []string{}
		index[tasks[i].ID] = i
		ids = append(ids, tasks[i].ID)
	}

	execQuery := fmt.Sprintf("SELECT task_id, user_id FROM task_executors WHERE task_id IN (%s) ORDER BY task_id, position", placeholders(len(ids)))
	if err := eachPair(ctx, q, execQuery, ids, func(taskID, value string) {
		i := index[taskID]
		tasks[i].ExecutorIDs = append(tasks[i].ExecutorIDs, value)
	}); err != nil {
		return err
	}

	imageQuery := fmt.Sprintf("SELECT task_id, ref FROM task_images WHERE task_id IN (%s) ORDER BY task_id, position", placeholders(len(ids)))
	return eachPair(ctx, q, imageQuery, ids, func(taskID, value string) {
		i := index[taskID]
		tasks[i].Images = append(tasks[i].Images, value)
	})
}

func eachPair(ctx context.Context, q queryer, query string, args []any, fn func(key, value string)) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		fn(key, value)
	}
	return rows.Err()
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var description, responsibleID sql.NullString
	var createdAt, updatedAt string
	var dueDate, completedAt, verifiedAt sql.NullString

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.ProjectName,
		&task.Status,
		&task.Priority,
		&responsibleID,
		&createdAt,
		&updatedAt,
		&dueDate,
		&completedAt,
		&verifiedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	task.Description = description.String
	task.ResponsibleID = responsibleID.String

	var err error
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if task.DueDate, err = parseNullTime(dueDate); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if task.VerifiedAt, err = parseNullTime(verifiedAt); err != nil {
		return nil, err
	}

	return &task, nil
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func tupleValues(rows, width int) string {
	tuple := "(" + placeholders(width) + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = tuple
	}
	return strings.Join(values, ",")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

// timeLayout is fixed width so text ordering in SQL matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	// RFC3339Nano also accepts timeLayout and rows written before migration 3.
	return time.Parse(time.RFC3339Nano, value)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
