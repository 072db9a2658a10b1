package model

// ScaleTier is an ordinal project-maturity classification.
type ScaleTier string

const (
	TierHobby      ScaleTier = "hobby"
	TierStartup    ScaleTier = "startup"
	TierGrowth     ScaleTier = "growth"
	TierEnterprise ScaleTier = "enterprise"
)

var tierOrder = map[ScaleTier]int{
	TierHobby:      0,
	TierStartup:    1,
	TierGrowth:     2,
	TierEnterprise: 3,
}

// Rank returns the tier's position in HOBBY < STARTUP < GROWTH < ENTERPRISE,
// or -1 for an unknown value.
func (t ScaleTier) Rank() int {
	r, ok := tierOrder[t]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether t is one of the four tiers.
func (t ScaleTier) Valid() bool {
	return t.Rank() >= 0
}
