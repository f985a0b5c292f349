package domain

// Principal is the request-scoped identity established from a valid token.
// It is never persisted.
type Principal struct {
	LoginName string
	Role      Role
}

// IsAdmin reports whether the principal carries the privileged role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
