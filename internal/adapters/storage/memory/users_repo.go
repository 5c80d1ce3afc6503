package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pawfect-match/internal/domain/users"
	"pawfect-match/internal/ports/storage"
)

type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := r.byID[u.ID]; exists {
		return storage.ErrDuplicate
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, id string, st users.LoginState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.LoginAttempts = st.Attempts
	u.LockUntil = st.LockUntil
	r.byID[id] = u
	return nil
}
