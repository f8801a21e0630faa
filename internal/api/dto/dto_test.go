package dto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grant-service/internal/domain"
	apperrors "github.com/spec-kit/grant-service/pkg/util/errorutil"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(FinalDecisionRequest{Decision: "Approved"}))

	err := Validate(FinalDecisionRequest{Decision: "Maybe"})
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, "oneof", de.Details["Decision"])

	bad := "Sometimes"
	assert.Error(t, Validate(RecordAssessmentRequest{Decision: &bad}))
	assert.NoError(t, Validate(RecordAssessmentRequest{}))

	negative := -1.0
	assert.Error(t, Validate(DeanRecommendationRequest{GrantAmount: &negative}))
	assert.Error(t, Validate(CommentRequest{}))
	assert.Error(t, Validate(CreateUserRequest{Role: "Dean"}))
	assert.NoError(t, Validate(SubmitApplicationRequest{}))
}

func TestRecordAssessmentRequestUpdate(t *testing.T) {
	decision := "Denied"
	flag := true
	update := RecordAssessmentRequest{Decision: &decision, PublicationIncentiveApplicable: &flag}.Update()
	require.NotNil(t, update.Decision)
	assert.Equal(t, domain.AssessmentDenied, *update.Decision)
	assert.True(t, *update.PublicationIncentiveApplicable)
	assert.Nil(t, update.ConferenceRegistrationChargeApplicable)
}

func TestNewApplicationResponse(t *testing.T) {
	approved := domain.FinalApproved
	grant := 100.0
	app := &domain.Application{
		ID:                 "a1",
		Status:             domain.StatusApproved,
		ApplicationFields:  domain.ApplicationFields{Title: "T"},
		Comments:           []domain.Comment{{ID: "m1", Message: "hi"}},
		DeanRecommendation: &domain.DeanRecommendation{GrantAmount: &grant},
		FinalDecision:      &approved,
	}

	resp := NewApplicationResponse(app)
	assert.Equal(t, 4, resp.Stage)
	assert.Equal(t, "Completed", resp.StageName)
	assert.Equal(t, "T", resp.Title)
	require.Len(t, resp.Comments, 1)
	assert.NotNil(t, resp.CommitteeAssessments)
	assert.Equal(t, 100.0, *resp.DeanRecommendation.GrantAmount)
}
