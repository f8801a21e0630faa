package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/repository"
)

// DemoStores are the repositories SeedDemo writes to.
type DemoStores struct {
	Users        repository.UserRepository
	Applications repository.ApplicationRepository
	History      repository.ApplicationHistoryRepository
}

// DemoUsers are the participants loaded by SeedDemo, in creation order.
func DemoUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Alice Applicant", Role: domain.RoleApplicant},
		{ID: "u2", Name: "Carl Committee", Role: domain.RoleCommittee},
		{ID: "u6", Name: "Cara Committee", Role: domain.RoleCommittee},
		{ID: "u7", Name: "Cody Committee", Role: domain.RoleCommittee},
		{ID: "u3", Name: "Dana Dean", Role: domain.RoleDean},
		{ID: "u4", Name: "Paul Principal", Role: domain.RolePrincipal},
		{ID: "u5", Name: "Adam Admin", Role: domain.RoleAdmin},
	}
}

// DemoApplications returns the two sample applications, most recent first: a1
// waits on the committee with one approval, a2 has all three approvals and sits
// with the Dean.
func DemoApplications(now time.Time) []domain.Application {
	approved := domain.AssessmentApproved
	yes := true
	assessed := func(userID string, flags bool) domain.CommitteeAssessment {
		decision := approved
		at := now
		a := domain.CommitteeAssessment{CommitteeUserID: userID, Decision: &decision, DecidedAt: &at}
		if flags {
			pub, conf := yes, yes
			a.PublicationIncentiveApplicable = &pub
			a.ConferenceRegistrationChargeApplicable = &conf
		}
		return a
	}
	comment := func(userID, message string) domain.Comment {
		return domain.Comment{ID: uuid.NewString(), Role: domain.RoleCommittee, UserID: userID, Message: message, CreatedAt: now}
	}

	return []domain.Application{
		{
			ID:            "a1",
			ApplicantID:   "u1",
			ApplicantName: "Alice Applicant",
			ApplicationFields: domain.ApplicationFields{
				Title:               "Deep Learning for Climate Modeling",
				ApplicationType:     "Publication Incentive",
				PublicationType:     "Journal",
				JournalOrConference: "Nature Climate Change",
				Quartile:            "Q1",
				ImpactFactor:        "14.5",
				IndexingType:        "Journal",
				Publisher:           "Nature Publishing",
			},
			Status:               domain.StatusCommitteeReview,
			Comments:             []domain.Comment{comment("u2", "Looks promising. Need dean input.")},
			CommitteeAssessments: []domain.CommitteeAssessment{assessed("u2", false)},
			CreatedAt:            now,
		},
		{
			ID:            "a2",
			ApplicantID:   "u1",
			ApplicantName: "Alice Applicant",
			ApplicationFields: domain.ApplicationFields{
				Title:               "AI-Assisted Conference Participation Study",
				ApplicationType:     "Publication Incentive",
				PublicationType:     "Journal",
				JournalOrConference: "IEEE AI & Data",
				Quartile:            "Q2",
				ImpactFactor:        "4.2",
				IndexingType:        "Conference",
				Publisher:           "IEEE",
				ConferencePlaceDate: "Berlin, Oct 2025",
				RegistrationFee:     "450",
			},
			Status: domain.StatusDeanReview,
			Comments: []domain.Comment{
				comment("u2", "Meets criteria for incentive."),
				comment("u6", "Conference registration justified."),
			},
			CommitteeAssessments: []domain.CommitteeAssessment{
				assessed("u2", true),
				assessed("u6", true),
				assessed("u7", true),
			},
			CreatedAt: now,
		},
	}
}

// SeedDemo loads the demo data into empty stores. Stores that already hold users
// are left alone.
func SeedDemo(ctx context.Context, stores DemoStores, now time.Time, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, err := stores.Users.List(ctx, repository.UserFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("demo seed skipped; users already present", zap.Int("users", len(existing)))
		return nil
	}

	for _, user := range DemoUsers() {
		u := user
		if err := stores.Users.Create(ctx, &u); err != nil {
			return err
		}
	}

	// Stores list newest first, so insert in reverse to keep a1 on top.
	apps := DemoApplications(now)
	for i := len(apps) - 1; i >= 0; i-- {
		app := apps[i]
		if err := stores.Applications.Create(ctx, &app); err != nil {
			return err
		}
		if stores.History == nil {
			continue
		}
		entries := []domain.ApplicationHistory{
			{ApplicationID: app.ID, NewStatus: domain.StatusPending, Reason: domain.ReasonSubmitted},
			{ApplicationID: app.ID, OldStatus: domain.StatusPending, NewStatus: app.Status, Reason: domain.ReasonCommitteeAssessed},
		}
		for _, entry := range entries {
			e := entry
			e.ID = uuid.NewString()
			e.CreatedAt = now
			if err := stores.History.Create(ctx, &e); err != nil {
				return err
			}
		}
	}

	logger.Info("demo data seeded", zap.Int("users", len(DemoUsers())), zap.Int("applications", len(apps)))
	return nil
}
