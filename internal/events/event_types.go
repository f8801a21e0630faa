package events

import (
	"time"

	"github.com/spec-kit/grant-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted     EventType = "application_submitted"
	EventApplicationStatusChanged EventType = "application_status_changed"
	EventAssessmentRecorded       EventType = "committee_assessment_recorded"
	EventDeanRecommendation       EventType = "dean_recommendation_recorded"
	EventFinalDecision            EventType = "final_decision_recorded"
	EventCommentAdded             EventType = "application_comment_added"
	EventUserChanged              EventType = "user_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// ActorFrom converts a workflow actor. A nil actor yields an empty Actor.
func ActorFrom(actor *domain.Actor) Actor {
	if actor == nil {
		return Actor{}
	}
	id := actor.ID
	role := actor.Role
	return Actor{UserID: &id, Role: &role}
}

// Event represents a domain event emitted by services. SubjectID is the
// application id, or the user id for user events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicantID string `json:"applicant_id"`
	Title       string `json:"title"`
}

// ApplicationStatusChangedPayload payload.
type ApplicationStatusChangedPayload struct {
	OldStatus domain.ApplicationStatus `json:"old_status"`
	NewStatus domain.ApplicationStatus `json:"new_status"`
	Reason    string                   `json:"reason"`
}

// AssessmentRecordedPayload payload.
type AssessmentRecordedPayload struct {
	CommitteeUserID string                     `json:"committee_user_id"`
	Decision        *domain.AssessmentDecision `json:"decision,omitempty"`
}

// DeanRecommendationPayload payload.
type DeanRecommendationPayload struct {
	GrantAmount *float64 `json:"grant_amount,omitempty"`
}

// FinalDecisionPayload payload.
type FinalDecisionPayload struct {
	Decision domain.FinalDecision `json:"decision"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string      `json:"comment_id"`
	Role        domain.Role `json:"role"`
	BodyPreview string      `json:"body_preview"`
}

// UserChangedPayload payload. Change is one of created, updated, deleted.
type UserChangedPayload struct {
	Change string      `json:"change"`
	Role   domain.Role `json:"role"`
	Name   string      `json:"name"`
}
