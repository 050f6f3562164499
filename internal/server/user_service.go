package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"novatask/internal/auth"
	"novatask/internal/config"
	"novatask/internal/models"
	"novatask/internal/store"
)

// UserService is the user directory: name-based login and id resolution.
type UserService struct {
	store         store.UserStore
	avatarBaseURL string
	now           func() time.Time

	// mu serializes get-or-create so concurrent logins of a new name agree.
	mu sync.Mutex
}

// NewUserService constructs a UserService.
func NewUserService(userStore store.UserStore, avatarBaseURL string) *UserService {
	if strings.TrimSpace(avatarBaseURL) == "" {
		avatarBaseURL = config.DefaultAvatarBaseURL
	}
	return &UserService{
		store:         userStore,
		avatarBaseURL: avatarBaseURL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Login returns the user with the given display name, creating it when missing.
func (s *UserService) Login(ctx context.Context, rawName string) (models.User, bool, error) {
	name, err := auth.NormalizeDisplayName(rawName)
	if err != nil {
		return models.User{}, false, badRequestCode(err, ErrCodeInvalidName)
	}
	return s.getOrCreate(ctx, name, "")
}

// Seed creates the configured users that do not exist yet.
func (s *UserService) Seed(ctx context.Context, seeds []config.UserSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		name, err := auth.NormalizeDisplayName(seed.Name)
		if err != nil {
			return created, fmt.Errorf("seed user %q: %w", seed.Name, err)
		}
		_, isNew, err := s.getOrCreate(ctx, name, seed.Role)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

func (s *UserService) getOrCreate(ctx context.Context, name, role string) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		return models.User{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Avatar:    auth.AvatarURL(s.avatarBaseURL, name),
		Role:      strings.TrimSpace(role),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		return models.User{}, notFoundCode(fmt.Errorf("user not found: %s", id), ErrCodeUserNotFound)
	}
	return *user, nil
}

// List returns all users ordered by name.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// Resolve looks up every id. Missing ids map to the unknown-user sentinel.
func (s *UserService) Resolve(ctx context.Context, ids []string) (map[string]models.User, error) {
	found, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			found[id] = models.UnknownUser(id)
		}
	}
	return found, nil
}
