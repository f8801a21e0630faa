package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/events"
	"github.com/spec-kit/grant-service/internal/lock"
	"github.com/spec-kit/grant-service/internal/observability"
	"github.com/spec-kit/grant-service/internal/repository"
	"github.com/spec-kit/grant-service/internal/workflow"
)

// ApplicationService coordinates the grant approval workflow.
type ApplicationService struct {
	apps        repository.ApplicationRepository
	users       repository.UserRepository
	history     repository.ApplicationHistoryRepository
	locker      lock.Locker
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	policy      workflow.Policy
	lockTimeout time.Duration
	now         func() time.Time
}

// ApplicationDependencies bundles collaborators for the application service.
type ApplicationDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	UserRepo        repository.UserRepository
	HistoryRepo     repository.ApplicationHistoryRepository
	Locker          lock.Locker
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Policy          workflow.Policy
	LockTimeout     time.Duration
	Clock           func() time.Time
}

// ApplicationListInput describes listing filters.
type ApplicationListInput struct {
	ApplicantID *string
	Statuses    []domain.ApplicationStatus
	Limit       int
	Offset      int
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	svc := &ApplicationService{
		apps:        deps.ApplicationRepo,
		users:       deps.UserRepo,
		history:     deps.HistoryRepo,
		locker:      deps.Locker,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		policy:      deps.Policy,
		lockTimeout: deps.LockTimeout,
		now:         deps.Clock,
	}
	if svc.locker == nil {
		svc.locker = lock.NewLocalLocker()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.policy.Quorum == "" {
		svc.policy.Quorum = workflow.QuorumLive
	}
	return svc
}

// Submit files a new application on behalf of the actor.
func (s *ApplicationService) Submit(ctx context.Context, actor *domain.Actor, fields domain.ApplicationFields) (*domain.Application, error) {
	if actor == nil {
		return nil, domain.ErrNoActor
	}

	app := &domain.Application{
		ID:                   uuid.NewString(),
		ApplicantID:          actor.ID,
		ApplicantName:        actor.Name,
		ApplicationFields:    fields,
		Status:               domain.StatusPending,
		Comments:             []domain.Comment{},
		CommitteeAssessments: []domain.CommitteeAssessment{},
		CreatedAt:            s.now(),
	}
	app.Title = strings.TrimSpace(app.Title)

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	s.recordStatusChange(ctx, actor, app.ID, "", app.Status, domain.ReasonSubmitted)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventApplicationSubmitted,
		SubjectID: app.ID,
		Actor:     events.ActorFrom(actor),
		Payload:   events.ApplicationSubmittedPayload{ApplicantID: app.ApplicantID, Title: app.Title},
	})
	return app.Clone(), nil
}

// RecordAssessment merges a committee member's partial assessment and recomputes
// the application status.
func (s *ApplicationService) RecordAssessment(ctx context.Context, applicationID, committeeUserID string, update workflow.AssessmentUpdate) (*domain.Application, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId", domain.ErrMissingIdentifier)
	}
	if committeeUserID == "" {
		return nil, fmt.Errorf("%w: committeeUserId", domain.ErrMissingIdentifier)
	}

	actor := &domain.Actor{ID: committeeUserID, Role: domain.RoleCommittee}
	before, after, err := s.mutate(ctx, actor, domain.ReasonCommitteeAssessed, applicationID, func(app *domain.Application) (*domain.Application, error) {
		members, err := s.users.CountByRole(ctx, domain.RoleCommittee)
		if err != nil {
			return nil, err
		}
		return workflow.ApplyAssessment(app, committeeUserID, update, members, s.policy, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actor, before, after, domain.ReasonCommitteeAssessed)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventAssessmentRecorded,
		SubjectID: after.ID,
		Actor:     events.ActorFrom(actor),
		Payload:   events.AssessmentRecordedPayload{CommitteeUserID: committeeUserID, Decision: update.Decision},
	})
	return after, nil
}

// RecordDeanRecommendation replaces the Dean's recommendation and forwards the
// application to the Principal. actor may be nil for in-process callers.
func (s *ApplicationService) RecordDeanRecommendation(ctx context.Context, actor *domain.Actor, applicationID string, rec domain.DeanRecommendation) (*domain.Application, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId", domain.ErrMissingIdentifier)
	}

	before, after, err := s.mutate(ctx, actor, domain.ReasonDeanRecommendation, applicationID, func(app *domain.Application) (*domain.Application, error) {
		return workflow.ApplyDeanRecommendation(app, rec, s.policy)
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actor, before, after, domain.ReasonDeanRecommendation)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventDeanRecommendation,
		SubjectID: after.ID,
		Actor:     events.ActorFrom(actor),
		Payload:   events.DeanRecommendationPayload{GrantAmount: rec.GrantAmount},
	})
	return after, nil
}

// RecordFinalDecision stores the Principal's verdict and closes the workflow.
func (s *ApplicationService) RecordFinalDecision(ctx context.Context, actor *domain.Actor, applicationID string, decision domain.FinalDecision) (*domain.Application, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId", domain.ErrMissingIdentifier)
	}
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDecision, decision)
	}

	before, after, err := s.mutate(ctx, actor, domain.ReasonFinalDecision, applicationID, func(app *domain.Application) (*domain.Application, error) {
		return workflow.ApplyFinalDecision(app, decision, s.policy)
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actor, before, after, domain.ReasonFinalDecision)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventFinalDecision,
		SubjectID: after.ID,
		Actor:     events.ActorFrom(actor),
		Payload:   events.FinalDecisionPayload{Decision: decision},
	})
	return after, nil
}

// AddComment appends a message from the actor to the application's thread.
func (s *ApplicationService) AddComment(ctx context.Context, actor *domain.Actor, applicationID, message string) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrNoActor
	}
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId", domain.ErrMissingIdentifier)
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyComment
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		Role:      actor.Role,
		UserID:    actor.ID,
		Message:   message,
		CreatedAt: s.now(),
	}
	_, after, err := s.mutate(ctx, actor, "", applicationID, func(app *domain.Application) (*domain.Application, error) {
		next := app.Clone()
		next.Comments = append(next.Comments, comment)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventCommentAdded,
		SubjectID: after.ID,
		Actor:     events.ActorFrom(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			Role:        comment.Role,
			BodyPreview: stringPreview(comment.Message, 120),
		},
	})
	return &comment, nil
}

// Get returns a snapshot of one application.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*domain.Application, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationId", domain.ErrMissingIdentifier)
	}
	return s.apps.GetByID(ctx, applicationID)
}

// List returns applications most recent first.
func (s *ApplicationService) List(ctx context.Context, input ApplicationListInput) ([]domain.Application, error) {
	for _, status := range input.Statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
		}
	}
	return s.apps.List(ctx, repository.ApplicationFilter{
		ApplicantID: input.ApplicantID,
		Statuses:    input.Statuses,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
}

// History returns the status audit trail of an application, oldest first.
func (s *ApplicationService) History(ctx context.Context, applicationID string) ([]domain.ApplicationHistory, error) {
	if _, err := s.Get(ctx, applicationID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.ApplicationHistory{}, nil
	}
	return s.history.ListByApplication(ctx, applicationID)
}

// mutate runs one read-modify-write cycle under the application's lock. fn gets a
// private copy; returning an error leaves the stored application untouched.
func (s *ApplicationService) mutate(ctx context.Context, actor *domain.Actor, reason, applicationID string, fn func(*domain.Application) (*domain.Application, error)) (*domain.Application, *domain.Application, error) {
	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	release, err := s.locker.Lock(lockCtx, "application:"+applicationID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrBusy, err)
		}
		return nil, nil, err
	}
	defer release()

	before, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	after, err := fn(before.Clone())
	if err != nil {
		return nil, nil, err
	}
	if err := s.apps.Update(ctx, after); err != nil {
		return nil, nil, err
	}
	if before.Status != after.Status {
		s.recordStatusChange(ctx, actor, after.ID, before.Status, after.Status, reason)
	}
	return before, after.Clone(), nil
}

// afterChange logs and publishes a committed status change.
func (s *ApplicationService) afterChange(ctx context.Context, actor *domain.Actor, before, after *domain.Application, reason string) {
	if before.Status == after.Status {
		return
	}
	s.logger.Info("application status changed",
		zap.String("application_id", after.ID),
		zap.String("from", string(before.Status)),
		zap.String("to", string(after.Status)),
		zap.String("reason", reason))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventApplicationStatusChanged,
		SubjectID: after.ID,
		Actor:     events.ActorFrom(actor),
		Payload: events.ApplicationStatusChangedPayload{
			OldStatus: before.Status,
			NewStatus: after.Status,
			Reason:    reason,
		},
	})
}

func (s *ApplicationService) recordStatusChange(ctx context.Context, actor *domain.Actor, applicationID string, oldStatus, newStatus domain.ApplicationStatus, reason string) {
	s.metrics.RecordTransition(string(oldStatus), string(newStatus))
	if s.history == nil {
		return
	}
	entry := &domain.ApplicationHistory{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Reason:        reason,
		CreatedAt:     s.now(),
	}
	if actor != nil {
		id, role := actor.ID, actor.Role
		entry.ChangedByID = &id
		entry.ChangedByRole = &role
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record application history", zap.String("application_id", applicationID), zap.Error(err))
	}
}

func (s *ApplicationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
