// Package plan defines the fixed subscription tiers used to gate module
// eligibility. Tiers are code-defined: adding one is a code change, not a
// migration.
package plan

const (
	KeyStarter  = "starter"
	KeyPro      = "pro"
	KeyBusiness = "business"
)

var levels = map[string]int{
	KeyStarter:  0,
	KeyPro:      10,
	KeyBusiness: 20,
}

// Level returns the numeric level of a plan key. Unknown keys resolve to 0.
func Level(key string) int {
	return levels[key]
}

// Known reports whether the plan key is a registered tier.
func Known(key string) bool {
	_, ok := levels[key]
	return ok
}

// MeetsRequirement reports whether the current plan is at least the required
// tier.
func MeetsRequirement(current, required string) bool {
	return Level(current) >= Level(required)
}
