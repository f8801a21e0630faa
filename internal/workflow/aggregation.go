package workflow

import (
	"fmt"
	"time"

	"github.com/spec-kit/grant-service/internal/domain"
)

// AssessmentUpdate is a partial committee assessment. Nil fields keep the value
// already recorded for the member.
type AssessmentUpdate struct {
	PublicationIncentiveApplicable         *bool
	ConferenceRegistrationChargeApplicable *bool
	Decision                               *domain.AssessmentDecision
	DecidedAt                              *time.Time
}

// CommitteeOutcome folds the recorded decisions into the application status.
//
// A single Denied decision denies the application. Otherwise the application moves
// to Dean Review once the number of decisions equals committeeMembers and all of
// them approve. Anything else keeps it in Committee Review.
func CommitteeOutcome(assessments []domain.CommitteeAssessment, committeeMembers int) domain.ApplicationStatus {
	decided := 0
	allApproved := true
	for _, assessment := range assessments {
		if assessment.Decision == nil {
			continue
		}
		switch *assessment.Decision {
		case domain.AssessmentDenied:
			return domain.StatusDenied
		case domain.AssessmentApproved:
		default:
			allApproved = false
		}
		decided++
	}
	if decided == committeeMembers && allApproved {
		return domain.StatusDeanReview
	}
	return domain.StatusCommitteeReview
}

// ApplyAssessment upserts the member's assessment into a copy of app and recomputes
// its status. liveCommitteeMembers is the number of committee users right now.
// Once a final decision exists the committee can no longer change anything.
func ApplyAssessment(app *domain.Application, committeeUserID string, update AssessmentUpdate, liveCommitteeMembers int, policy Policy, now time.Time) (*domain.Application, error) {
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	if committeeUserID == "" {
		return nil, domain.ErrMissingIdentifier
	}
	if update.Decision != nil && !update.Decision.Valid() {
		return nil, domain.ErrInvalidDecision
	}
	if app.FinalDecision != nil {
		return nil, fmt.Errorf("%w: assessment after final decision %q", domain.ErrInvalidTransition, *app.FinalDecision)
	}

	next := app.Clone()
	mergeAssessment(next, committeeUserID, update, now)

	members := liveCommitteeMembers
	if policy.Quorum == QuorumFrozen {
		if next.CommitteeQuorum == 0 {
			next.CommitteeQuorum = liveCommitteeMembers
		}
		members = next.CommitteeQuorum
	}
	next.Status = CommitteeOutcome(next.CommitteeAssessments, members)
	return next, nil
}

func mergeAssessment(app *domain.Application, committeeUserID string, update AssessmentUpdate, now time.Time) {
	existing, found := app.AssessmentFor(committeeUserID)
	if !found {
		app.CommitteeAssessments = append(app.CommitteeAssessments, domain.CommitteeAssessment{CommitteeUserID: committeeUserID})
		existing = &app.CommitteeAssessments[len(app.CommitteeAssessments)-1]
	}

	if update.PublicationIncentiveApplicable != nil {
		v := *update.PublicationIncentiveApplicable
		existing.PublicationIncentiveApplicable = &v
	}
	if update.ConferenceRegistrationChargeApplicable != nil {
		v := *update.ConferenceRegistrationChargeApplicable
		existing.ConferenceRegistrationChargeApplicable = &v
	}
	if update.DecidedAt != nil {
		t := *update.DecidedAt
		existing.DecidedAt = &t
	}
	if update.Decision != nil {
		decision := *update.Decision
		// decidedAt only moves when the verdict itself changes, so replays are stable.
		if update.DecidedAt == nil && (existing.Decision == nil || *existing.Decision != decision || existing.DecidedAt == nil) {
			stamped := now
			existing.DecidedAt = &stamped
		}
		existing.Decision = &decision
	}
}
