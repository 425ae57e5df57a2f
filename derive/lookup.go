package derive

import (
	"gopkg.in/guregu/null.v3"
)

// Rule is one guarded value of a categorical derivation.
type Rule struct {
	When  Predicate
	Value string
}

// Rules are evaluated top-down and the first match wins. Conditions are taken
// literally: overlapping or leaving gaps between rules is the caller's
// declaration, not something to repair here.
type Rules []Rule

// Apply returns the value of the first rule whose condition holds, or an
// invalid null.String when none does.
func (rules Rules) Apply(r Row) null.String {
	for _, rule := range rules {
		if rule.When(r) {
			return null.StringFrom(rule.Value)
		}
	}

	return null.String{}
}

// ApplyLookup is Rules.Apply for callers holding a plain slice.
func ApplyLookup(r Row, rules []Rule) null.String {
	return Rules(rules).Apply(r)
}
