package dto

import (
	"time"

	"github.com/spec-kit/grant-service/internal/domain"
	"github.com/spec-kit/grant-service/internal/workflow"
)

// SubmitApplicationRequest payload. Every field is optional.
type SubmitApplicationRequest struct {
	Title               string `json:"title" validate:"max=300"`
	ApplicationType     string `json:"application_type" validate:"max=120"`
	PublicationType     string `json:"publication_type" validate:"max=120"`
	JournalOrConference string `json:"journal_or_conference" validate:"max=300"`
	Quartile            string `json:"quartile" validate:"max=20"`
	ImpactFactor        string `json:"impact_factor" validate:"max=20"`
	IndexingType        string `json:"indexing_type" validate:"max=120"`
	Publisher           string `json:"publisher" validate:"max=300"`
	ConferencePlaceDate string `json:"conference_place_date" validate:"max=300"`
	RegistrationFee     string `json:"registration_fee" validate:"max=40"`
}

// Fields converts the request into domain fields.
func (r SubmitApplicationRequest) Fields() domain.ApplicationFields {
	return domain.ApplicationFields{
		Title:               r.Title,
		ApplicationType:     r.ApplicationType,
		PublicationType:     r.PublicationType,
		JournalOrConference: r.JournalOrConference,
		Quartile:            r.Quartile,
		ImpactFactor:        r.ImpactFactor,
		IndexingType:        r.IndexingType,
		Publisher:           r.Publisher,
		ConferencePlaceDate: r.ConferencePlaceDate,
		RegistrationFee:     r.RegistrationFee,
	}
}

// RecordAssessmentRequest is a partial assessment; omitted fields keep their value.
type RecordAssessmentRequest struct {
	PublicationIncentiveApplicable         *bool      `json:"publication_incentive_applicable"`
	ConferenceRegistrationChargeApplicable *bool      `json:"conference_registration_charge_applicable"`
	Decision                               *string    `json:"decision" validate:"omitempty,oneof=Approved Denied"`
	DecidedAt                              *time.Time `json:"decided_at"`
}

// Update converts the request into an engine update.
func (r RecordAssessmentRequest) Update() workflow.AssessmentUpdate {
	update := workflow.AssessmentUpdate{
		PublicationIncentiveApplicable:         r.PublicationIncentiveApplicable,
		ConferenceRegistrationChargeApplicable: r.ConferenceRegistrationChargeApplicable,
		DecidedAt:                              r.DecidedAt,
	}
	if r.Decision != nil {
		decision := domain.AssessmentDecision(*r.Decision)
		update.Decision = &decision
	}
	return update
}

// DeanRecommendationRequest payload. It replaces any earlier recommendation.
type DeanRecommendationRequest struct {
	GrantAmount              *float64 `json:"grant_amount" validate:"omitempty,gte=0"`
	PublicationIncentive     *float64 `json:"publication_incentive" validate:"omitempty,gte=0"`
	FirstAuthorShare         *float64 `json:"first_author_share" validate:"omitempty,gte=0"`
	CorrespondingAuthorShare *float64 `json:"corresponding_author_share" validate:"omitempty,gte=0"`
	CoAuthorShare            *float64 `json:"co_author_share" validate:"omitempty,gte=0"`
}

// Recommendation converts the request.
func (r DeanRecommendationRequest) Recommendation() domain.DeanRecommendation {
	return domain.DeanRecommendation{
		GrantAmount:              r.GrantAmount,
		PublicationIncentive:     r.PublicationIncentive,
		FirstAuthorShare:         r.FirstAuthorShare,
		CorrespondingAuthorShare: r.CorrespondingAuthorShare,
		CoAuthorShare:            r.CoAuthorShare,
	}
}

// FinalDecisionRequest payload.
type FinalDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=Approved Rejected"`
}

// CommentRequest payload.
type CommentRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	UserID    string      `json:"user_id"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}

// AssessmentResponse is one committee member's assessment.
type AssessmentResponse struct {
	CommitteeUserID                        string                     `json:"committee_user_id"`
	PublicationIncentiveApplicable         *bool                      `json:"publication_incentive_applicable,omitempty"`
	ConferenceRegistrationChargeApplicable *bool                      `json:"conference_registration_charge_applicable,omitempty"`
	Decision                               *domain.AssessmentDecision `json:"decision,omitempty"`
	DecidedAt                              *time.Time                 `json:"decided_at,omitempty"`
}

// DeanRecommendationResponse mirrors the request.
type DeanRecommendationResponse struct {
	GrantAmount              *float64 `json:"grant_amount,omitempty"`
	PublicationIncentive     *float64 `json:"publication_incentive,omitempty"`
	FirstAuthorShare         *float64 `json:"first_author_share,omitempty"`
	CorrespondingAuthorShare *float64 `json:"corresponding_author_share,omitempty"`
	CoAuthorShare            *float64 `json:"co_author_share,omitempty"`
}

// ApplicationResponse provides full application info. Stage is the position on
// the five step timeline.
type ApplicationResponse struct {
	ID                   string                      `json:"id"`
	ApplicantID          string                      `json:"applicant_id"`
	ApplicantName        string                      `json:"applicant_name"`
	Title                string                      `json:"title"`
	ApplicationType      string                      `json:"application_type"`
	PublicationType      string                      `json:"publication_type"`
	JournalOrConference  string                      `json:"journal_or_conference"`
	Quartile             string                      `json:"quartile"`
	ImpactFactor         string                      `json:"impact_factor"`
	IndexingType         string                      `json:"indexing_type"`
	Publisher            string                      `json:"publisher"`
	ConferencePlaceDate  string                      `json:"conference_place_date"`
	RegistrationFee      string                      `json:"registration_fee"`
	Status               domain.ApplicationStatus    `json:"status"`
	Stage                int                         `json:"stage"`
	StageName            string                      `json:"stage_name"`
	Comments             []CommentResponse           `json:"comments"`
	CommitteeAssessments []AssessmentResponse        `json:"committee_assessments"`
	DeanRecommendation   *DeanRecommendationResponse `json:"dean_recommendation,omitempty"`
	FinalDecision        *domain.FinalDecision       `json:"final_decision,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// HistoryResponse is one status audit entry.
type HistoryResponse struct {
	ID            string                   `json:"id"`
	ChangedByRole *domain.Role             `json:"changed_by_role,omitempty"`
	ChangedByID   *string                  `json:"changed_by_id,omitempty"`
	OldStatus     domain.ApplicationStatus `json:"old_status,omitempty"`
	NewStatus     domain.ApplicationStatus `json:"new_status"`
	Reason        string                   `json:"reason"`
	CreatedAt     time.Time                `json:"created_at"`
}

// NewApplicationResponse maps the domain aggregate.
func NewApplicationResponse(app *domain.Application) ApplicationResponse {
	stage := workflow.StageIndex(app.Status)
	resp := ApplicationResponse{
		ID:                   app.ID,
		ApplicantID:          app.ApplicantID,
		ApplicantName:        app.ApplicantName,
		Title:                app.Title,
		ApplicationType:      app.ApplicationType,
		PublicationType:      app.PublicationType,
		JournalOrConference:  app.JournalOrConference,
		Quartile:             app.Quartile,
		ImpactFactor:         app.ImpactFactor,
		IndexingType:         app.IndexingType,
		Publisher:            app.Publisher,
		ConferencePlaceDate:  app.ConferencePlaceDate,
		RegistrationFee:      app.RegistrationFee,
		Status:               app.Status,
		Stage:                stage,
		StageName:            workflow.Stages[stage],
		Comments:             make([]CommentResponse, 0, len(app.Comments)),
		CommitteeAssessments: make([]AssessmentResponse, 0, len(app.CommitteeAssessments)),
		FinalDecision:        app.FinalDecision,
		CreatedAt:            app.CreatedAt,
		UpdatedAt:            app.UpdatedAt,
	}
	for _, comment := range app.Comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(comment))
	}
	for _, a := range app.CommitteeAssessments {
		resp.CommitteeAssessments = append(resp.CommitteeAssessments, AssessmentResponse{
			CommitteeUserID:                        a.CommitteeUserID,
			PublicationIncentiveApplicable:         a.PublicationIncentiveApplicable,
			ConferenceRegistrationChargeApplicable: a.ConferenceRegistrationChargeApplicable,
			Decision:                               a.Decision,
			DecidedAt:                              a.DecidedAt,
		})
	}
	if rec := app.DeanRecommendation; rec != nil {
		resp.DeanRecommendation = &DeanRecommendationResponse{
			GrantAmount:              rec.GrantAmount,
			PublicationIncentive:     rec.PublicationIncentive,
			FirstAuthorShare:         rec.FirstAuthorShare,
			CorrespondingAuthorShare: rec.CorrespondingAuthorShare,
			CoAuthorShare:            rec.CoAuthorShare,
		}
	}
	return resp
}

// NewCommentResponse maps one comment.
func NewCommentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{ID: c.ID, Role: c.Role, UserID: c.UserID, Message: c.Message, CreatedAt: c.CreatedAt}
}

// NewHistoryResponse maps one audit entry.
func NewHistoryResponse(h domain.ApplicationHistory) HistoryResponse {
	return HistoryResponse{
		ID:            h.ID,
		ChangedByRole: h.ChangedByRole,
		ChangedByID:   h.ChangedByID,
		OldStatus:     h.OldStatus,
		NewStatus:     h.NewStatus,
		Reason:        h.Reason,
		CreatedAt:     h.CreatedAt,
	}
}
