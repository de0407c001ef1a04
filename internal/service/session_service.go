package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

// Signup input limits.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// SessionService tracks the current identity. It is Anonymous until
// Restore, Login or Signup succeeds, and Anonymous again after Logout.
type SessionService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   auth.PasswordHasher
	bus      events.Bus
	clock    clock.Clock
	logger   *zap.Logger

	mu      sync.RWMutex
	current *domain.SessionUser

	decoyMu     sync.Mutex
	decoyDigest string
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Hasher      auth.PasswordHasher
	Bus         events.Bus
	Clock       clock.Clock
	Logger      *zap.Logger
}

// NewSessionService builds the service in the Anonymous state. Call
// Restore to pick up a persisted session.
func NewSessionService(deps SessionDependencies) *SessionService {
	s := &SessionService{
		users:    deps.UserRepo,
		sessions: deps.SessionRepo,
		hasher:   deps.Hasher,
		bus:      deps.Bus,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Restore loads the persisted session. A missing or malformed record
// leaves the service Anonymous; a malformed one is also removed. Only
// storage failures are returned.
func (s *SessionService) Restore(ctx context.Context) error {
	user, err := s.sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrMalformedSession) {
			return err
		}
		s.logger.Warn("discarding malformed session", zap.Error(err))
		s.setCurrent(nil)
		return s.sessions.Clear(ctx)
	}
	s.setCurrent(user)
	if user != nil {
		s.logger.Debug("session restored", zap.String("user_id", user.ID))
	}
	return nil
}

// Login authenticates by username and password. An unknown username and a
// wrong password fail with the same ErrInvalidCredentials. Calling Login
// while authenticated re-authenticates and replaces the session.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.SessionUser, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return domain.SessionUser{}, err
		}
		s.burnHashTime(password)
		return domain.SessionUser{}, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		return domain.SessionUser{}, apperrors.ErrInvalidCredentials
	}

	session := user.Session()
	if err := s.persist(ctx, session); err != nil {
		return domain.SessionUser{}, err
	}
	s.publish(ctx, events.EventUserLoggedIn, session.ID)
	return session, nil
}

// Signup creates an account and authenticates as it. An existing username
// fails with ErrUsernameTaken before the length rules are applied.
func (s *SessionService) Signup(ctx context.Context, username, password string) (domain.SessionUser, error) {
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.SessionUser{}, apperrors.ErrUsernameTaken
	case !errors.Is(err, apperrors.ErrNotFound):
		return domain.SessionUser{}, err
	}

	if err := validateSignup(username, password); err != nil {
		return domain.SessionUser{}, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return domain.SessionUser{}, apperrors.NewInternalError(err)
	}
	user, err := s.users.Create(ctx, username, digest)
	if err != nil {
		return domain.SessionUser{}, err
	}

	session := user.Session()
	if err := s.persist(ctx, session); err != nil {
		return domain.SessionUser{}, err
	}
	s.publish(ctx, events.EventUserSignedUp, session.ID)
	return session, nil
}

// Logout clears the persisted session. Ticket and user data are kept.
func (s *SessionService) Logout(ctx context.Context) error {
	previous, wasAuthenticated := s.CurrentUser()
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.setCurrent(nil)
	if wasAuthenticated {
		s.publish(ctx, events.EventUserLoggedOut, previous.ID)
	}
	return nil
}

// CurrentUser returns the authenticated identity, if any.
func (s *SessionService) CurrentUser() (domain.SessionUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.SessionUser{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a user is logged in.
func (s *SessionService) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

func (s *SessionService) persist(ctx context.Context, session domain.SessionUser) error {
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}
	s.setCurrent(&session)
	return nil
}

func (s *SessionService) setCurrent(user *domain.SessionUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.current = nil
		return
	}
	copied := *user
	s.current = &copied
}

// burnHashTime spends the same bcrypt cost as a real comparison so an
// unknown username is not distinguishable by timing.
func (s *SessionService) burnHashTime(password string) {
	if digest, ok := s.decoy(); ok {
		s.hasher.Verify(password, digest)
		return
	}
	_, _ = s.hasher.Hash(password)
}

// decoy returns a cached digest, retrying the hash until one succeeds.
func (s *SessionService) decoy() (string, bool) {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()
	if s.decoyDigest != "" {
		return s.decoyDigest, true
	}
	digest, err := s.hasher.Hash("decoy-password")
	if err != nil {
		s.logger.Warn("decoy digest unavailable", zap.Error(err))
		return "", false
	}
	s.decoyDigest = digest
	return digest, true
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, userID string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.NewEvent(eventType, userID, s.clock.Now())); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func validateSignup(username, password string) error {
	details := map[string]any{}
	if len([]rune(username)) < MinUsernameLength {
		details["username"] = "must be at least 3 characters"
	}
	if len([]rune(password)) < MinPasswordLength {
		details["password"] = "must be at least 6 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid signup", details)
	}
	return nil
}
