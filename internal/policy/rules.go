package policy

import "github.com/vinodhj/cf-jwt-auth/internal/auth"

// Condition is an optional predicate over the actor and subject; a rule
// without one matches unconditionally.
type Condition func(actor auth.SessionUser, subject Subject) bool

// Rule grants or withdraws one action on one subject type. ActionManage and
// SubjectAll act as wildcards.
type Rule struct {
	allow     bool
	action    Action
	subject   string
	condition Condition
}

// Allow builds a permissive rule.
func Allow(action Action, subjectType string) Rule {
	return Rule{allow: true, action: action, subject: subjectType}
}

// Deny builds a withdrawing rule. Declare deny rules after the allow rules
// they narrow: evaluation is declaration order, last match wins.
func Deny(action Action, subjectType string) Rule {
	return Rule{allow: false, action: action, subject: subjectType}
}

// When attaches a condition to the rule.
func (r Rule) When(cond Condition) Rule {
	r.condition = cond
	return r
}

func (r Rule) matches(actor auth.SessionUser, action Action, subject Subject) bool {
	if r.action != ActionManage && r.action != action {
		return false
	}
	if r.subject != SubjectAll && r.subject != subject.Type {
		return false
	}
	if r.condition != nil && !r.condition(actor, subject) {
		return false
	}
	return true
}

// Ruleset is the declarative strategy: an ordered rule list evaluated
// last-match-wins, deny by default when nothing matches.
type Ruleset struct {
	rules []Rule
}

// NewRuleset constructs an evaluator over the given rules. Order matters:
// more specific (conditioned) rules belong after the coarse ones they
// override.
func NewRuleset(rules ...Rule) *Ruleset {
	return &Ruleset{rules: rules}
}

// Can implements Evaluator.
func (rs *Ruleset) Can(actor auth.SessionUser, action Action, subject Subject) bool {
	decision := false
	matched := false
	for _, rule := range rs.rules {
		if rule.matches(actor, action, subject) {
			decision = rule.allow
			matched = true
		}
	}
	return matched && decision
}

// IsAdmin is a Condition matching ADMIN actors.
func IsAdmin(actor auth.SessionUser, _ Subject) bool { return actor.IsAdmin() }

// NotAdmin is the complement of IsAdmin.
func NotAdmin(actor auth.SessionUser, _ Subject) bool { return !actor.IsAdmin() }

// Owns matches when the subject belongs to the actor.
func Owns(actor auth.SessionUser, subject Subject) bool {
	return subject.OwnerID != "" && subject.OwnerID == actor.ID
}

// DefaultRuleset mirrors the product's stock grants: admins manage
// everything; users read user records, update their own, and may not delete
// anyone, not even themselves.
func DefaultRuleset() *Ruleset {
	return NewRuleset(
		Allow(ActionManage, SubjectAll).When(IsAdmin),
		Allow(ActionRead, "User").When(NotAdmin),
		Allow(ActionUpdate, "User").When(Owns),
		Deny(ActionDelete, "User").When(NotAdmin),
	)
}
