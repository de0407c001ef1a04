package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/storage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	// GetByUsername matches username exactly (case-sensitive, no trimming).
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Create fails with ErrDuplicateUsername when the username exists.
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
}

type userRepository struct {
	mu    sync.Mutex
	users *storage.Collection[domain.User]
}

// NewUserRepository returns a repository over the users collection at key.
func NewUserRepository(kv storage.KV, key string, logger *zap.Logger) UserRepository {
	return &userRepository{users: storage.NewCollection[domain.User](kv, key, logger)}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	users, err := r.users.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			user := users[i]
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.users.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			user := users[i]
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *userRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	// the uniqueness check and the insert happen under one lock
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range users {
		if existing.Username == username {
			return nil, apperrors.NewDuplicateUsername(username)
		}
	}

	user := domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: passwordHash,
	}
	if err := r.users.Write(ctx, append(users, user)); err != nil {
		return nil, err
	}
	return &user, nil
}
