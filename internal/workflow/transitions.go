package workflow

import (
	"fmt"

	"github.com/spec-kit/grant-service/internal/domain"
)

// ApplyDeanRecommendation replaces the Dean's recommendation on a copy of app and
// forwards it to Principal Review. Applications in a terminal status are rejected
// in every mode.
func ApplyDeanRecommendation(app *domain.Application, rec domain.DeanRecommendation, policy Policy) (*domain.Application, error) {
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	if app.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: dean recommendation on %q application", domain.ErrInvalidTransition, app.Status)
	}
	if policy.StrictTransitions && app.Status != domain.StatusDeanReview {
		return nil, fmt.Errorf("%w: dean recommendation requires %q, application is %q",
			domain.ErrInvalidTransition, domain.StatusDeanReview, app.Status)
	}

	next := app.Clone()
	cloned := rec.Clone()
	next.DeanRecommendation = &cloned
	next.Status = domain.StatusPrincipalReview
	return next, nil
}

// ApplyFinalDecision records the Principal's verdict on a copy of app and moves it
// to the matching terminal status.
func ApplyFinalDecision(app *domain.Application, decision domain.FinalDecision, policy Policy) (*domain.Application, error) {
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	if !decision.Valid() {
		return nil, domain.ErrInvalidDecision
	}
	if policy.StrictTransitions && app.Status != domain.StatusPrincipalReview {
		return nil, fmt.Errorf("%w: final decision requires %q, application is %q",
			domain.ErrInvalidTransition, domain.StatusPrincipalReview, app.Status)
	}

	next := app.Clone()
	next.FinalDecision = &decision
	next.Status = StatusForFinalDecision(decision)
	return next, nil
}

// StatusForFinalDecision maps a Principal verdict to its terminal status.
func StatusForFinalDecision(decision domain.FinalDecision) domain.ApplicationStatus {
	if decision == domain.FinalApproved {
		return domain.StatusApproved
	}
	return domain.StatusDenied
}

// Stage names of the applicant-facing timeline.
var Stages = []string{"Submitted", "Committee", "Dean", "Principal", "Completed"}

// StageIndex places a status on the timeline. Both terminal statuses share the
// last step.
func StageIndex(status domain.ApplicationStatus) int {
	switch status {
	case domain.StatusCommitteeReview:
		return 1
	case domain.StatusDeanReview:
		return 2
	case domain.StatusPrincipalReview:
		return 3
	case domain.StatusApproved, domain.StatusDenied:
		return 4
	default:
		return 0
	}
}
