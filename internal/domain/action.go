package domain

import (
	"encoding/json"
	"fmt"
)

// ToolGroup is the routing granularity for requested actions.
type ToolGroup string

const (
	GroupAssessment ToolGroup = "assessment"
	GroupSafety     ToolGroup = "safety"
	GroupKnowledge  ToolGroup = "knowledge"
	GroupUnknown    ToolGroup = "unknown"
)

// Tool names the decision node may request.
const (
	ToolAdministerAssessment = "administer_assessment"
	ToolScoreAssessment      = "score_assessment"
	ToolRetrieveInformation  = "retrieve_information"
	ToolGetCBTExercise       = "get_cbt_exercise"
	ToolGetCrisisProtocol    = "get_crisis_protocol"
	ToolGetPsychoeducation   = "get_psychoeducation"
	ToolSendTherapistAlert   = "send_therapist_alert"
)

// ActionRequest is a recorded tool request: the raw form persisted on a
// thread (both inside assistant messages and as the pending-action slot).
// Arguments stay raw JSON so resume re-parses and re-validates them.
type ActionRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Action is the typed form of an ActionRequest: one variant per known
// tool plus Unrecognized for everything else.
type Action interface {
	ActionName() string
	Group() ToolGroup
}

// AdministerAssessment asks to present an instrument to the user.
// Context is "" (full questionnaire), "embedded", or "follow-up".
type AdministerAssessment struct {
	Kind    AssessmentKind `json:"assessment_type"`
	Context string         `json:"context,omitempty"`
}

func (AdministerAssessment) ActionName() string { return ToolAdministerAssessment }
func (AdministerAssessment) Group() ToolGroup   { return GroupAssessment }

// ScoreAssessment submits completed item answers for scoring.
type ScoreAssessment struct {
	Kind  AssessmentKind `json:"assessment_type"`
	Items []int          `json:"scores"`
}

func (ScoreAssessment) ActionName() string { return ToolScoreAssessment }
func (ScoreAssessment) Group() ToolGroup   { return GroupAssessment }

// RetrieveInformation searches the knowledge corpus.
type RetrieveInformation struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"num_results,omitempty"`
}

func (RetrieveInformation) ActionName() string { return ToolRetrieveInformation }
func (RetrieveInformation) Group() ToolGroup   { return GroupKnowledge }

// GetCBTExercise retrieves a CBT exercise for an issue.
type GetCBTExercise struct {
	Issue        string `json:"issue"`
	Distortion   string `json:"distortion_type,omitempty"`
	ExerciseType string `json:"exercise_type,omitempty"`
}

func (GetCBTExercise) ActionName() string { return ToolGetCBTExercise }
func (GetCBTExercise) Group() ToolGroup   { return GroupKnowledge }

// GetCrisisProtocol retrieves the crisis protocol for a risk level.
type GetCrisisProtocol struct {
	RiskLevel string `json:"risk_level"`
}

func (GetCrisisProtocol) ActionName() string { return ToolGetCrisisProtocol }
func (GetCrisisProtocol) Group() ToolGroup   { return GroupKnowledge }

// GetPsychoeducation retrieves educational content on a topic.
type GetPsychoeducation struct {
	Topic  string `json:"topic"`
	Format string `json:"format_type,omitempty"`
}

func (GetPsychoeducation) ActionName() string { return ToolGetPsychoeducation }
func (GetPsychoeducation) Group() ToolGroup   { return GroupKnowledge }

// SendTherapistAlert escalates to the user's therapist. Never executes
// without an explicit approval decision.
type SendTherapistAlert struct {
	RiskLevel string `json:"risk_level"`
	Summary   string `json:"situation_summary"`
	Notes     string `json:"additional_notes,omitempty"`
}

func (SendTherapistAlert) ActionName() string { return ToolSendTherapistAlert }
func (SendTherapistAlert) Group() ToolGroup   { return GroupSafety }

// Unrecognized is the fail-safe variant for tool names Haven does not
// know. The engine terminates the turn without executing anything.
type Unrecognized struct {
	Name string
}

func (u Unrecognized) ActionName() string { return u.Name }
func (Unrecognized) Group() ToolGroup     { return GroupUnknown }

// ParseAction decodes a raw request into its typed variant. Unknown names
// return Unrecognized with a nil error; malformed arguments for a known
// tool are an error.
func ParseAction(req ActionRequest) (Action, error) {
	args := req.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	decode := func(v any) error {
		if err := json.Unmarshal(args, v); err != nil {
			return fmt.Errorf("decoding %s arguments: %w", req.Name, err)
		}
		return nil
	}

	switch req.Name {
	case ToolAdministerAssessment:
		var a AdministerAssessment
		return a, decode(&a)
	case ToolScoreAssessment:
		var a ScoreAssessment
		return a, decode(&a)
	case ToolRetrieveInformation:
		var a RetrieveInformation
		return a, decode(&a)
	case ToolGetCBTExercise:
		var a GetCBTExercise
		return a, decode(&a)
	case ToolGetCrisisProtocol:
		var a GetCrisisProtocol
		return a, decode(&a)
	case ToolGetPsychoeducation:
		var a GetPsychoeducation
		return a, decode(&a)
	case ToolSendTherapistAlert:
		var a SendTherapistAlert
		return a, decode(&a)
	default:
		return Unrecognized{Name: req.Name}, nil
	}
}

// GroupOf resolves the routing group for a tool name via the static
// membership table, without decoding arguments.
func GroupOf(name string) ToolGroup {
	switch name {
	case ToolAdministerAssessment, ToolScoreAssessment:
		return GroupAssessment
	case ToolSendTherapistAlert:
		return GroupSafety
	case ToolRetrieveInformation, ToolGetCBTExercise, ToolGetCrisisProtocol, ToolGetPsychoeducation:
		return GroupKnowledge
	default:
		return GroupUnknown
	}
}
