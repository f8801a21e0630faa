package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/events"
	"github.com/spec-kit/grant-service/internal/repository"
)

// UserService manages workflow participants.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger}
}

// UserCreateInput describes a new user.
type UserCreateInput struct {
	Name string
	Role domain.Role
}

// Create adds a user.
func (s *UserService) Create(ctx context.Context, actor *domain.Actor, input UserCreateInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, input.Role)
	}
	user := &domain.User{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(input.Name),
		Role: input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, actor, user, "created")
	return user, nil
}

// Update merges patch into the stored user.
func (s *UserService) Update(ctx context.Context, actor *domain.Actor, id string, patch domain.UserPatch) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: userId", domain.ErrMissingIdentifier)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, *patch.Role)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user)
	user.Name = strings.TrimSpace(user.Name)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, actor, user, "updated")
	return user, nil
}

// Delete removes a user. Their applications, comments and assessments stay.
func (s *UserService) Delete(ctx context.Context, actor *domain.Actor, id string) error {
	if id == "" {
		return fmt.Errorf("%w: userId", domain.ErrMissingIdentifier)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, actor, user, "deleted")
	return nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: userId", domain.ErrMissingIdentifier)
	}
	return s.users.GetByID(ctx, id)
}

// List returns users in creation order, optionally limited to one role.
func (s *UserService) List(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	if role != nil && !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, *role)
	}
	return s.users.List(ctx, repository.UserFilter{Role: role})
}

func (s *UserService) publish(ctx context.Context, actor *domain.Actor, user *domain.User, change string) {
	s.logger.Info("user changed", zap.String("user_id", user.ID), zap.String("change", change), zap.String("role", string(user.Role)))
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserChanged,
		SubjectID: user.ID,
		Actor:     events.ActorFrom(actor),
		Timestamp: time.Now(),
		Payload:   events.UserChangedPayload{Change: change, Role: user.Role, Name: user.Name},
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(events.EventUserChanged)), zap.Error(err))
	}
}
