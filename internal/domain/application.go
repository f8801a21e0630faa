package domain

import "time"

// ApplicationStatus enumerates the workflow stages of a grant application.
type ApplicationStatus string

const (
	StatusPending         ApplicationStatus = "Pending"
	StatusCommitteeReview ApplicationStatus = "Committee Review"
	StatusDeanReview      ApplicationStatus = "Dean Review"
	StatusPrincipalReview ApplicationStatus = "Principal Review"
	StatusApproved        ApplicationStatus = "Approved"
	StatusDenied          ApplicationStatus = "Denied"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCommitteeReview, StatusDeanReview, StatusPrincipalReview, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// IsTerminal reports whether s ends the workflow.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// AssessmentDecision is one committee member's verdict.
type AssessmentDecision string

const (
	AssessmentApproved AssessmentDecision = "Approved"
	AssessmentDenied   AssessmentDecision = "Denied"
)

// Valid reports whether d is a known decision.
func (d AssessmentDecision) Valid() bool {
	return d == AssessmentApproved || d == AssessmentDenied
}

// FinalDecision is the Principal's verdict.
type FinalDecision string

const (
	FinalApproved FinalDecision = "Approved"
	FinalRejected FinalDecision = "Rejected"
)

// Valid reports whether d is a known final decision.
func (d FinalDecision) Valid() bool {
	return d == FinalApproved || d == FinalRejected
}

// Comment is one entry of an application's discussion thread.
type Comment struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommitteeAssessment holds one committee member's judgments for an application.
type CommitteeAssessment struct {
	CommitteeUserID                        string              `json:"committeeUserId"`
	PublicationIncentiveApplicable         *bool               `json:"publicationIncentiveApplicable,omitempty"`
	ConferenceRegistrationChargeApplicable *bool               `json:"conferenceRegistrationChargeApplicable,omitempty"`
	Decision                               *AssessmentDecision `json:"decision,omitempty"`
	DecidedAt                              *time.Time          `json:"decidedAt,omitempty"`
}

// DeanRecommendation is the Dean's funding proposal.
type DeanRecommendation struct {
	GrantAmount              *float64 `json:"grantAmount,omitempty"`
	PublicationIncentive     *float64 `json:"publicationIncentive,omitempty"`
	FirstAuthorShare         *float64 `json:"firstAuthorShare,omitempty"`
	CorrespondingAuthorShare *float64 `json:"correspondingAuthorShare,omitempty"`
	CoAuthorShare            *float64 `json:"coAuthorShare,omitempty"`
}

// ApplicationFields are the free-form descriptive fields captured at submission.
type ApplicationFields struct {
	Title               string
	ApplicationType     string
	PublicationType     string
	JournalOrConference string
	Quartile            string
	ImpactFactor        string
	IndexingType        string
	Publisher           string
	ConferencePlaceDate string
	RegistrationFee     string
}

// Application is the aggregate for one grant request.
type Application struct {
	ID            string
	ApplicantID   string
	ApplicantName string
	ApplicationFields
	Status               ApplicationStatus
	Comments             []Comment
	CommitteeAssessments []CommitteeAssessment
	DeanRecommendation   *DeanRecommendation
	FinalDecision        *FinalDecision
	// CommitteeQuorum is the committee size frozen at the first assessment.
	// Zero means not frozen.
	CommitteeQuorum int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssessmentFor returns the assessment recorded by committeeUserID, if any.
func (a *Application) AssessmentFor(committeeUserID string) (*CommitteeAssessment, bool) {
	for i := range a.CommitteeAssessments {
		if a.CommitteeAssessments[i].CommitteeUserID == committeeUserID {
			return &a.CommitteeAssessments[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	if a.Comments != nil {
		out.Comments = make([]Comment, len(a.Comments))
		copy(out.Comments, a.Comments)
	}
	if a.CommitteeAssessments != nil {
		out.CommitteeAssessments = make([]CommitteeAssessment, len(a.CommitteeAssessments))
		for i, assessment := range a.CommitteeAssessments {
			out.CommitteeAssessments[i] = assessment.Clone()
		}
	}
	if a.DeanRecommendation != nil {
		rec := a.DeanRecommendation.Clone()
		out.DeanRecommendation = &rec
	}
	if a.FinalDecision != nil {
		decision := *a.FinalDecision
		out.FinalDecision = &decision
	}
	return &out
}

// Clone deep-copies the optional fields of the assessment.
func (c CommitteeAssessment) Clone() CommitteeAssessment {
	out := c
	out.PublicationIncentiveApplicable = cloneBool(c.PublicationIncentiveApplicable)
	out.ConferenceRegistrationChargeApplicable = cloneBool(c.ConferenceRegistrationChargeApplicable)
	if c.Decision != nil {
		d := *c.Decision
		out.Decision = &d
	}
	if c.DecidedAt != nil {
		t := *c.DecidedAt
		out.DecidedAt = &t
	}
	return out
}

// Clone deep-copies the recommendation amounts.
func (r DeanRecommendation) Clone() DeanRecommendation {
	return DeanRecommendation{
		GrantAmount:              cloneFloat(r.GrantAmount),
		PublicationIncentive:     cloneFloat(r.PublicationIncentive),
		FirstAuthorShare:         cloneFloat(r.FirstAuthorShare),
		CorrespondingAuthorShare: cloneFloat(r.CorrespondingAuthorShare),
		CoAuthorShare:            cloneFloat(r.CoAuthorShare),
	}
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
