package risk

import (
	"strings"

	"github.com/havenproj/haven/internal/domain"
)

// Crisis-indicator phrases, strongest first. The tiers follow standard
// risk criteria: explicit intent or a specific plan is imminent; active
// ideation or means is high; passive ideation, hopelessness, and burden
// statements are moderate.
var (
	imminentPhrases = []string{
		"going to kill myself",
		"i will kill myself",
		"about to end my life",
		"i am going to end it",
		"tonight i will",
		"wrote a suicide note",
		"written a suicide note",
		"have a plan to kill",
		"pills ready",
		"have the pills",
		"have a gun",
	}

	highPhrases = []string{
		"kill myself",
		"killing myself",
		"end my life",
		"want to die",
		"wish i was dead",
		"wish i were dead",
		"better off dead",
		"don't want to live",
		"do not want to live",
		"hurt myself",
		"harm myself",
		"self-harm",
		"cut myself",
		"tried to kill",
		"suicide attempt",
		"overdose",
	}

	moderatePhrases = []string{
		"no point in living",
		"life has no point",
		"no reason to live",
		"better off without me",
		"everyone would be better off",
		"hopeless",
		"feel trapped",
		"feeling trapped",
		"i'm a burden",
		"i am a burden",
		"can't take this pain",
		"cannot take this pain",
		"can't go on",
		"thinking about death",
		"preoccupied with death",
	}
)

// ClassifyText scans free text against the crisis-indicator lexicon and
// returns the strongest matching tier, or low when nothing matches.
func ClassifyText(text string) domain.RiskLevel {
	if text == "" {
		return domain.RiskLow
	}
	t := strings.ToLower(text)

	for _, p := range imminentPhrases {
		if strings.Contains(t, p) {
			return domain.RiskImminent
		}
	}
	for _, p := range highPhrases {
		if strings.Contains(t, p) {
			return domain.RiskHigh
		}
	}
	for _, p := range moderatePhrases {
		if strings.Contains(t, p) {
			return domain.RiskModerate
		}
	}
	return domain.RiskLow
}
