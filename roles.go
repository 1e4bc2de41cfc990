package staart

// MembershipRole is the role a user holds within an organization.
type MembershipRole string

const (
	// RoleMember can view the organization.
	RoleMember MembershipRole = "member"
	// RoleAdmin can view, edit, and create.
	RoleAdmin MembershipRole = "admin"
	// RoleOwner can additionally delete the organization. An
	// organization has exactly one owner at creation time.
	RoleOwner MembershipRole = "owner"
)

// IsValid checks if the role is one of the predefined valid roles.
func (r MembershipRole) IsValid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// CanRead checks if this role can read organization resources.
func (r MembershipRole) CanRead() bool {
	return r.IsValid()
}

// CanReadSecure checks if this role can read sensitive aggregate data
// (billing, full event history).
func (r MembershipRole) CanReadSecure() bool {
	return r.IsAtLeast(RoleAdmin)
}

// CanCreate checks if this role can create organization resources.
func (r MembershipRole) CanCreate() bool {
	return r.IsAtLeast(RoleAdmin)
}

// CanUpdate checks if this role can edit organization resources.
func (r MembershipRole) CanUpdate() bool {
	return r.IsAtLeast(RoleAdmin)
}

// CanDelete checks if this role can delete the organization.
func (r MembershipRole) CanDelete() bool {
	return r == RoleOwner
}

// IsAtLeast checks if the role meets the minimum required level.
func (r MembershipRole) IsAtLeast(minRole MembershipRole) bool {
	roleHierarchy := map[MembershipRole]int{
		RoleMember: 0,
		RoleAdmin:  1,
		RoleOwner:  2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns the predefined roles in hierarchical order.
func AllRoles() []MembershipRole {
	return []MembershipRole{RoleMember, RoleAdmin, RoleOwner}
}

// ParseRole safely parses a string into a MembershipRole.
func ParseRole(roleStr string) (MembershipRole, bool) {
	role := MembershipRole(roleStr)
	return role, role.IsValid()
}
