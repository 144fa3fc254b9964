package domain

import "time"

// AssessmentKind identifies a screening instrument.
type AssessmentKind string

const (
	KindPHQ9   AssessmentKind = "phq9"
	KindGAD7   AssessmentKind = "gad7"
	KindDAST10 AssessmentKind = "dast10"
	KindCAGE   AssessmentKind = "cage"
)

// Kinds lists all supported instruments.
var Kinds = []AssessmentKind{KindPHQ9, KindGAD7, KindDAST10, KindCAGE}

// Valid reports whether the kind is a supported instrument.
func (k AssessmentKind) Valid() bool {
	switch k {
	case KindPHQ9, KindGAD7, KindDAST10, KindCAGE:
		return true
	}
	return false
}

// AssessmentRecord is one completed assessment submission. Never mutated
// after creation; queried most-recent-first per user and kind.
type AssessmentRecord struct {
	ID        int64          `json:"assessmentId"`
	UserID    int64          `json:"userId"`
	Kind      AssessmentKind `json:"assessmentType"`
	Total     int            `json:"totalScore"`
	Items     []int          `json:"itemScores"`
	Timestamp time.Time      `json:"timestamp"`
}

// CrisisEvent is one entry in the append-only safety audit log. A user's
// current risk level is the level of their most recent event, defaulting
// to low. Interventions are logged as low-risk events with an
// "intervention_*" action tag.
type CrisisEvent struct {
	ID          int64     `json:"eventId"`
	UserID      int64     `json:"userId"`
	Level       RiskLevel `json:"riskLevel"`
	Description string    `json:"description"`
	ActionTaken string    `json:"actionTaken"`
	Timestamp   time.Time `json:"timestamp"`
}
