package auth

import "github.com/spec-kit/grant-service/internal/domain"

// Operation names an action a role may be allowed to perform.
type Operation string

const (
	OpSubmitApplication        Operation = "submit_application"
	OpRecordAssessment         Operation = "record_assessment"
	OpRecordDeanRecommendation Operation = "record_dean_recommendation"
	OpRecordFinalDecision      Operation = "record_final_decision"
	OpAddComment               Operation = "add_comment"
	OpViewApplications         Operation = "view_applications"
	OpManageUsers              Operation = "manage_users"
	OpViewUsers                Operation = "view_users"
)

var permissions = map[domain.Role]map[Operation]struct{}{
	domain.RoleApplicant: set(OpSubmitApplication, OpAddComment, OpViewApplications),
	domain.RoleCommittee: set(OpRecordAssessment, OpAddComment, OpViewApplications),
	domain.RoleDean:      set(OpRecordDeanRecommendation, OpAddComment, OpViewApplications),
	domain.RolePrincipal: set(OpRecordFinalDecision, OpAddComment, OpViewApplications),
	domain.RoleAdmin:     set(OpManageUsers, OpViewUsers, OpViewApplications),
}

func set(ops ...Operation) map[Operation]struct{} {
	out := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		out[op] = struct{}{}
	}
	return out
}

// Allowed reports whether role may perform op.
func Allowed(role domain.Role, op Operation) bool {
	_, ok := permissions[role][op]
	return ok
}
