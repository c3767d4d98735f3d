package auth

// IsValidRole checks if the name is one of the predefined roles.
func IsValidRole(name RoleName) bool {
	switch name {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	default:
		return false
	}
}

// AllRoles returns the predefined role names in hierarchical order.
func AllRoles() []RoleName {
	return []RoleName{RoleUser, RoleEditor, RoleAdmin}
}

// ParseRole safely parses a string into a RoleName.
func ParseRole(s string) (RoleName, bool) {
	role := RoleName(s)
	return role, IsValidRole(role)
}

var roleRank = map[RoleName]int{
	RoleUser:   0,
	RoleEditor: 1,
	RoleAdmin:  2,
}

// RoleAtLeast checks whether role meets the minimum required level.
func RoleAtLeast(role, minRole RoleName) bool {
	current, ok := roleRank[role]
	if !ok {
		return false
	}
	min, ok := roleRank[minRole]
	if !ok {
		return false
	}
	return current >= min
}
