package store

import (
	"context"
	"database/sql"
	"fmt"

	"novatask/internal/models"
)

const userColumns = "id, name, avatar, role, created_at"

// CreateUser inserts a user. Names are unique.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Avatar, nullIfEmpty(user.Role), formatTime(user.CreatedAt),
	)
	return err
}

// GetUser returns a user by id, or nil when missing.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByName returns a user by display name, or nil when missing.
func (s *Store) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE name = ?", name)
	return scanUser(row)
}

// GetUsers returns the users found for ids, keyed by id. Missing ids are absent.
func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := map[string]models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT "+userColumns+" FROM users WHERE id IN (%s)", placeholders(len(ids))), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[user.ID] = *user
	}
	return out, rows.Err()
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*models.User, error) {
	var user models.User
	var role sql.NullString
	var createdAt string
	if err := scanner.Scan(&user.ID, &user.Name, &user.Avatar, &role, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	user.Role = role.String
	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parsed
	return &user, nil
}
