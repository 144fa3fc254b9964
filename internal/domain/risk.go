package domain

// RiskLevel is the four-point urgency scale for safety concerns.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskImminent RiskLevel = "imminent"
)

// riskRank orders levels for comparison. Unknown levels rank below low.
var riskRank = map[RiskLevel]int{
	RiskLow:      1,
	RiskModerate: 2,
	RiskHigh:     3,
	RiskImminent: 4,
}

// Valid reports whether the level is one of the four known values.
func (l RiskLevel) Valid() bool {
	_, ok := riskRank[l]
	return ok
}

// AtLeast reports whether l is at or above the given level.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// Max returns the higher of the two levels.
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if riskRank[other] > riskRank[l] {
		return other
	}
	return l
}

// ParseRiskLevel maps a string to a RiskLevel, reporting whether it is known.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	l := RiskLevel(s)
	return l, l.Valid()
}
