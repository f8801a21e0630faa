package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grant-service/internal/auth"
	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/lock"
	"github.com/spec-kit/grant-service/internal/repository"
)

// SessionService picks the acting user and issues session tokens. There are no
// credentials: logging in as a role selects the first user holding it.
type SessionService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	revoked auth.RevocationStore
	locker  lock.Locker
	logger  *zap.Logger
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Revocation auth.RevocationStore
	Locker     lock.Locker
	Logger     *zap.Logger
}

// Session is a logged-in user with its token.
type Session struct {
	User  *domain.User
	Token auth.IssuedToken
}

// NewSessionService constructs the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	svc := &SessionService{
		users:   deps.UserRepo,
		tokens:  deps.Tokens,
		revoked: deps.Revocation,
		locker:  deps.Locker,
		logger:  deps.Logger,
	}
	if svc.revoked == nil {
		svc.revoked = auth.NewMemoryRevocationStore()
	}
	if svc.locker == nil {
		svc.locker = lock.NewLocalLocker()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// LoginAs selects the first user with role, creating one named name (or
// "<Role> User") when none exists.
func (s *SessionService) LoginAs(ctx context.Context, role domain.Role, name string) (*Session, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	release, err := s.locker.Lock(ctx, "login:"+string(role))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBusy, err)
	}
	user, err := s.users.FirstByRole(ctx, role)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Role: role}
		if user.Name == "" {
			user.Name = string(role) + " User"
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			s.logger.Info("created user for login", zap.String("user_id", user.ID), zap.String("role", string(role)))
		}
	}
	release()
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Logout revokes the session token until it would have expired.
func (s *SessionService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return domain.ErrNoActor
	}
	return s.revoked.Revoke(ctx, tokenID, expiresAt)
}
