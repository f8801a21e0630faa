package domain

import "strings"

// Role enumerates the closed set of workflow participants.
type Role string

const (
	RoleApplicant Role = "Applicant"
	RoleCommittee Role = "Committee"
	RoleDean      Role = "Dean"
	RolePrincipal Role = "Principal"
	RoleAdmin     Role = "Admin"
)

var allRoles = []Role{RoleApplicant, RoleCommittee, RoleDean, RolePrincipal, RoleAdmin}

// Roles returns every known role in workflow order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, candidate := range allRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(value string) (Role, bool) {
	value = strings.TrimSpace(value)
	for _, candidate := range allRoles {
		if strings.EqualFold(string(candidate), value) {
			return candidate, true
		}
	}
	return "", false
}
