package policy

import "github.com/vinodhj/cf-jwt-auth/internal/auth"

// RoleGate is the binary strategy: admins may do anything, everyone else
// only what targets their own record, and some actions are admin-only
// outright.
type RoleGate struct {
	adminOnly map[Action]struct{}
}

// NewRoleGate constructs a gate. Listed actions require the ADMIN role even
// on the caller's own record.
func NewRoleGate(adminOnly ...Action) *RoleGate {
	set := make(map[Action]struct{}, len(adminOnly))
	for _, a := range adminOnly {
		set[a] = struct{}{}
	}
	return &RoleGate{adminOnly: set}
}

// Can implements Evaluator with self-or-admin semantics.
func (g *RoleGate) Can(actor auth.SessionUser, action Action, subject Subject) bool {
	if actor.IsAdmin() {
		return true
	}
	if _, ok := g.adminOnly[action]; ok {
		return false
	}
	return subject.OwnerID != "" && subject.OwnerID == actor.ID
}
