package domain

import "time"

// ApplicationHistory is an audit entry written whenever an application's status changes.
type ApplicationHistory struct {
	ID            string
	ApplicationID string
	ChangedByRole *Role
	ChangedByID   *string
	OldStatus     ApplicationStatus
	NewStatus     ApplicationStatus
	Reason        string
	CreatedAt     time.Time
}

// History reasons.
const (
	ReasonSubmitted          = "submitted"
	ReasonCommitteeAssessed  = "committee_assessment"
	ReasonDeanRecommendation = "dean_recommendation"
	ReasonFinalDecision      = "final_decision"
)
