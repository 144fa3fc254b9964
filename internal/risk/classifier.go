// Package risk maps assessment signals and free-text crisis indicators
// to the four-level risk scale and decides when escalation is mandatory.
package risk

import (
	"strings"

	"github.com/havenproj/haven/internal/domain"
)

// Signals are the inputs to a risk determination. Proposed is the level
// the decision node claims; the classifier treats it as a floor input,
// never as authoritative.
type Signals struct {
	Proposed    domain.RiskLevel
	SuicideItem int
	Severity    string
	Text        string
}

// Classify combines all available signals into a risk level. The
// hardcoded backstops always win over the proposed level: the result is
// the maximum of every signal's contribution.
func Classify(sig Signals) domain.RiskLevel {
	level := domain.RiskLow
	if sig.Proposed.Valid() {
		level = sig.Proposed
	}
	level = level.Max(ClassifyText(sig.Text))
	level = level.Max(severityLevel(sig.Severity))
	return Floor(level, sig.SuicideItem)
}

// Floor applies the self-harm item backstop: any non-zero value rules
// out low, and a value of 2 or more is at least high. This holds
// regardless of what the decision node concluded.
func Floor(proposed domain.RiskLevel, suicideItem int) domain.RiskLevel {
	level := proposed
	if !level.Valid() {
		level = domain.RiskLow
	}
	switch {
	case suicideItem >= 2:
		return level.Max(domain.RiskHigh)
	case suicideItem >= 1:
		return level.Max(domain.RiskModerate)
	}
	return level
}

// EscalationRequired reports whether a therapist alert is mandatory for
// the level. High and imminent always escalate; moderate is left to the
// decision node's discretion; low never escalates automatically.
func EscalationRequired(level domain.RiskLevel) bool {
	return level.AtLeast(domain.RiskHigh)
}

// severityLevel maps a severity label's strength to a minimum level.
func severityLevel(label string) domain.RiskLevel {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "severe") || strings.Contains(l, "high risk"):
		return domain.RiskModerate
	case strings.Contains(l, "substantial"):
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}
