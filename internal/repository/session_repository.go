package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/storage"
)

// ErrMalformedSession is returned by Load when a record exists but does not
// decode to a session naming a user.
var ErrMalformedSession = errors.New("malformed session record")

// SessionRepository persists the single current session record.
type SessionRepository interface {
	// Load returns nil, nil when no session is stored.
	Load(ctx context.Context) (*domain.SessionUser, error)
	Save(ctx context.Context, user domain.SessionUser) error
	Clear(ctx context.Context) error
}

type sessionRepository struct {
	kv  storage.KV
	key string
}

// NewSessionRepository stores the session record under key.
func NewSessionRepository(kv storage.KV, key string) SessionRepository {
	return &sessionRepository{kv: kv, key: key}
}

func (r *sessionRepository) Load(ctx context.Context) (*domain.SessionUser, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var record domain.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if !record.WellFormed() {
		return nil, ErrMalformedSession
	}
	return record.User, nil
}

func (r *sessionRepository) Save(ctx context.Context, user domain.SessionUser) error {
	payload, err := json.Marshal(domain.SessionRecord{User: &user})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
