package workflow

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grant-service/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func TestApplyDeanRecommendation(t *testing.T) {
	app := pendingApplication()
	app.Status = domain.StatusDeanReview

	next, err := ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(5000)}, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPrincipalReview, next.Status)
	require.NotNil(t, next.DeanRecommendation)
	require.NotNil(t, next.DeanRecommendation.GrantAmount)
	assert.Equal(t, 5000.0, *next.DeanRecommendation.GrantAmount)
	assert.Equal(t, domain.StatusDeanReview, app.Status, "input untouched")
}

func TestApplyDeanRecommendation_FullReplace(t *testing.T) {
	app := pendingApplication()
	app.Status = domain.StatusDeanReview

	first, err := ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(5000), CoAuthorShare: floatPtr(20)}, DefaultPolicy())
	require.NoError(t, err)
	second, err := ApplyDeanRecommendation(first, domain.DeanRecommendation{PublicationIncentive: floatPtr(1200)}, DefaultPolicy())
	require.NoError(t, err)

	assert.Nil(t, second.DeanRecommendation.GrantAmount)
	assert.Nil(t, second.DeanRecommendation.CoAuthorShare)
	assert.Equal(t, 1200.0, *second.DeanRecommendation.PublicationIncentive)
}

func TestApplyDeanRecommendation_LenientForcesTransition(t *testing.T) {
	for _, status := range []domain.ApplicationStatus{domain.StatusPending, domain.StatusCommitteeReview, domain.StatusPrincipalReview} {
		app := pendingApplication()
		app.Status = status

		next, err := ApplyDeanRecommendation(app, domain.DeanRecommendation{}, DefaultPolicy())
		require.NoError(t, err, status)
		assert.Equal(t, domain.StatusPrincipalReview, next.Status, status)
	}
}

func TestApplyDeanRecommendation_RejectsTerminalStatus(t *testing.T) {
	approved := domain.FinalApproved
	for _, policy := range []Policy{DefaultPolicy(), {Quorum: QuorumLive, StrictTransitions: true}} {
		for _, status := range []domain.ApplicationStatus{domain.StatusApproved, domain.StatusDenied} {
			app := pendingApplication()
			app.Status = status
			if status == domain.StatusApproved {
				app.FinalDecision = &approved
			}

			next, err := ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(10)}, policy)
			require.ErrorIs(t, err, domain.ErrInvalidTransition, status)
			assert.Nil(t, next)
			assert.Equal(t, status, app.Status)
			assert.Nil(t, app.DeanRecommendation)
		}
	}
}

func TestApplyDeanRecommendation_StrictRequiresDeanReview(t *testing.T) {
	policy := Policy{Quorum: QuorumLive, StrictTransitions: true}
	app := pendingApplication()
	app.Status = domain.StatusCommitteeReview

	next, err := ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(1)}, policy)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Nil(t, next)
	assert.Nil(t, app.DeanRecommendation)

	app.Status = domain.StatusDeanReview
	next, err = ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(1)}, policy)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPrincipalReview, next.Status)
}

func TestApplyFinalDecision(t *testing.T) {
	tests := []struct {
		decision domain.FinalDecision
		want     domain.ApplicationStatus
	}{
		{decision: domain.FinalApproved, want: domain.StatusApproved},
		{decision: domain.FinalRejected, want: domain.StatusDenied},
	}
	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			app := pendingApplication()
			app.Status = domain.StatusPrincipalReview

			next, err := ApplyFinalDecision(app, tt.decision, DefaultPolicy())
			require.NoError(t, err)
			assert.Equal(t, tt.want, next.Status)
			require.NotNil(t, next.FinalDecision)
			assert.Equal(t, tt.decision, *next.FinalDecision)

			again, err := ApplyFinalDecision(next, tt.decision, DefaultPolicy())
			require.NoError(t, err)
			assert.Equal(t, next, again)
		})
	}
}

func TestApplyFinalDecision_RejectsUnknownDecision(t *testing.T) {
	_, err := ApplyFinalDecision(pendingApplication(), "Maybe", DefaultPolicy())
	require.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestApplyFinalDecision_StrictRequiresPrincipalReview(t *testing.T) {
	policy := Policy{StrictTransitions: true}
	app := pendingApplication()
	app.Status = domain.StatusDeanReview

	_, err := ApplyFinalDecision(app, domain.FinalApproved, policy)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Nil(t, app.FinalDecision)
}

func TestNilApplicationIsNotFound(t *testing.T) {
	_, err := ApplyAssessment(nil, "c1", approve(), 1, DefaultPolicy(), testNow)
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
	_, err = ApplyDeanRecommendation(nil, domain.DeanRecommendation{}, DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
	_, err = ApplyFinalDecision(nil, domain.FinalApproved, DefaultPolicy())
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

// Random operation sequences must never return an application to Pending, and a
// recorded final decision always leaves a matching terminal status behind.
func TestRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	members := []string{"c1", "c2", "c3"}
	decisions := []domain.AssessmentDecision{domain.AssessmentApproved, domain.AssessmentDenied}
	finals := []domain.FinalDecision{domain.FinalApproved, domain.FinalRejected}

	for run := 0; run < 200; run++ {
		app := pendingApplication()
		left := false
		for step := 0; step < 12; step++ {
			var next *domain.Application
			var err error
			switch rng.Intn(3) {
			case 0:
				update := AssessmentUpdate{Decision: decisionPtr(decisions[rng.Intn(len(decisions))])}
				next, err = ApplyAssessment(app, members[rng.Intn(len(members))], update, len(members), DefaultPolicy(), testNow)
			case 1:
				next, err = ApplyDeanRecommendation(app, domain.DeanRecommendation{GrantAmount: floatPtr(float64(rng.Intn(10000)))}, DefaultPolicy())
			case 2:
				next, err = ApplyFinalDecision(app, finals[rng.Intn(len(finals))], DefaultPolicy())
			}
			if errors.Is(err, domain.ErrInvalidTransition) {
				require.True(t, app.Status.IsTerminal(), "run %d step %d: rejected from %q", run, step, app.Status)
				require.Nil(t, next)
			} else {
				require.NoError(t, err)
				app = next
			}

			if app.FinalDecision != nil {
				require.Equal(t, StatusForFinalDecision(*app.FinalDecision), app.Status, "run %d step %d", run, step)
			}
			if app.Status != domain.StatusPending {
				left = true
			}
			if left {
				require.NotEqual(t, domain.StatusPending, app.Status, "run %d step %d", run, step)
			}
		}
	}
}

func TestStageIndex(t *testing.T) {
	assert.Equal(t, 0, StageIndex(domain.StatusPending))
	assert.Equal(t, 1, StageIndex(domain.StatusCommitteeReview))
	assert.Equal(t, 2, StageIndex(domain.StatusDeanReview))
	assert.Equal(t, 3, StageIndex(domain.StatusPrincipalReview))
	assert.Equal(t, 4, StageIndex(domain.StatusApproved))
	assert.Equal(t, 4, StageIndex(domain.StatusDenied))
	assert.Len(t, Stages, 5)
}
