package repository

import (
	"context"
	"sync"

	"eduvista/internal/model"
)

type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*model.User
	nextID int
}

// NewMemoryUserRepository creates an in-process UserRepository, used when no
// database is configured and in tests.
func NewMemoryUserRepository(users ...*model.User) UserRepository {
	r := &memoryUserRepository{users: make(map[string]*model.User), nextID: 1}
	for _, u := range users {
		_ = r.Create(context.Background(), u)
	}
	return r
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return ErrUsernameTaken
	}
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.Username] = &stored
	return nil
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	found := *u
	return &found, nil
}
