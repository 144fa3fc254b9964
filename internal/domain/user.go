// Package domain holds the core types shared across Haven: users,
// conversation threads, assessment and crisis records, and the tagged
// action-request union the orchestration engine routes on.
package domain

import "time"

// User is a person Haven supports. Created lazily on first interaction.
type User struct {
	ID             int64     `json:"userId"`
	Name           string    `json:"name"`
	TherapistEmail string    `json:"therapistEmail,omitempty"`
	ConsentLevel   string    `json:"consentLevel"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AssessmentScore summarizes the most recent result for one instrument,
// used in the profile handed to the decision node.
type AssessmentScore struct {
	Kind  AssessmentKind `json:"kind"`
	Total int            `json:"total"`
	When  time.Time      `json:"when"`
}

// Profile is the read-only user context loaded at the start of every
// assistant turn. Missing users get a safe default (low risk, no contact).
type Profile struct {
	UserID         int64             `json:"userId"`
	Name           string            `json:"name"`
	TherapistEmail string            `json:"therapistEmail,omitempty"`
	ConsentLevel   string            `json:"consentLevel"`
	RiskLevel      RiskLevel         `json:"riskLevel"`
	LatestScores   []AssessmentScore `json:"latestScores,omitempty"`
}

// DefaultProfile returns the profile used when a user has no history.
func DefaultProfile(userID int64) Profile {
	return Profile{
		UserID:       userID,
		Name:         "User",
		ConsentLevel: "basic",
		RiskLevel:    RiskLow,
	}
}
