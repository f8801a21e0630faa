package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/grant-service/internal/domain"
)

// MemoryUserRepository keeps users in insertion order. Reads return copies.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users []domain.User
	now   func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{now: time.Now}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, *user)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == user.ID {
			user.CreatedAt = r.users[i].CreatedAt
			user.UpdatedAt = r.now()
			r.users[i] = *user
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i:i], r.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryUserRepository) FirstByRole(_ context.Context, role domain.Role) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Role == role {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryUserRepository) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}

func (r *MemoryUserRepository) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// MemoryApplicationRepository keeps applications most-recent-first. Every read and
// write goes through Clone so callers only ever hold snapshots.
type MemoryApplicationRepository struct {
	mu   sync.RWMutex
	apps []*domain.Application
	now  func() time.Time
}

// NewMemoryApplicationRepository creates an empty in-memory application store.
func NewMemoryApplicationRepository() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{now: time.Now}
}

func (r *MemoryApplicationRepository) Create(_ context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = r.now()
	}
	app.UpdatedAt = app.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append([]*domain.Application{app.Clone()}, r.apps...)
	return nil
}

func (r *MemoryApplicationRepository) Update(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.apps {
		if existing.ID == app.ID {
			app.CreatedAt = existing.CreatedAt
			app.UpdatedAt = r.now()
			r.apps[i] = app.Clone()
			return nil
		}
	}
	return domain.ErrApplicationNotFound
}

func (r *MemoryApplicationRepository) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, app := range r.apps {
		if app.ID == id {
			return app.Clone(), nil
		}
	}
	return nil, domain.ErrApplicationNotFound
}

func (r *MemoryApplicationRepository) List(_ context.Context, filter ApplicationFilter) ([]domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Application, 0, len(r.apps))
	skipped := 0
	for _, app := range r.apps {
		if filter.ApplicantID != nil && app.ApplicantID != *filter.ApplicantID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, app.Status) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
		result = append(result, *app.Clone())
	}
	return result, nil
}

func containsStatus(statuses []domain.ApplicationStatus, status domain.ApplicationStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// MemoryApplicationHistoryRepository keeps audit entries per application.
type MemoryApplicationHistoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.ApplicationHistory
	now     func() time.Time
}

// NewMemoryApplicationHistoryRepository creates an empty history store.
func NewMemoryApplicationHistoryRepository() *MemoryApplicationHistoryRepository {
	return &MemoryApplicationHistoryRepository{entries: make(map[string][]domain.ApplicationHistory), now: time.Now}
}

func (r *MemoryApplicationHistoryRepository) Create(_ context.Context, history *domain.ApplicationHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[history.ApplicationID] = append(r.entries[history.ApplicationID], *history)
	return nil
}

func (r *MemoryApplicationHistoryRepository) ListByApplication(_ context.Context, applicationID string) ([]domain.ApplicationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries[applicationID]
	result := make([]domain.ApplicationHistory, len(entries))
	copy(result, entries)
	return result, nil
}

var (
	_ UserRepository               = (*MemoryUserRepository)(nil)
	_ ApplicationRepository        = (*MemoryApplicationRepository)(nil)
	_ ApplicationHistoryRepository = (*MemoryApplicationHistoryRepository)(nil)
)
