// Package policy decides whether an authenticated principal may perform an
// action on a resource. Two interchangeable strategies implement one
// Evaluator interface: a binary role gate and a declarative rule list.
// Both default-deny.
package policy

import "github.com/vinodhj/cf-jwt-auth/internal/auth"

// Action names an operation on a subject.
type Action string

const (
	// ActionManage matches every action.
	ActionManage Action = "manage"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// SubjectAll matches every subject type.
const SubjectAll = "all"

// Subject identifies the target resource: its type plus the id of the
// principal that owns it, when ownership applies.
type Subject struct {
	Type    string
	OwnerID string
}

// User builds the subject for a user record.
func User(ownerID string) Subject {
	return Subject{Type: "User", OwnerID: ownerID}
}

// Evaluator maps (actor, action, subject) to an allow/deny decision.
// Implementations are pure: no side effects, no store access.
type Evaluator interface {
	Can(actor auth.SessionUser, action Action, subject Subject) bool
}
