package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/havenproj/haven/internal/assess"
	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/store"
)

// AdministerTool presents a screening instrument to the user, either as
// the full questionnaire or as guidance for weaving items into the
// conversation.
type AdministerTool struct {
	log *logging.Logger
}

// NewAdministerTool creates the administer_assessment tool.
func NewAdministerTool(log *logging.Logger) *AdministerTool {
	return &AdministerTool{log: log.Sub("tool.administer")}
}

func (t *AdministerTool) Name() string { return domain.ToolAdministerAssessment }

func (t *AdministerTool) Description() string {
	return "Present a mental health assessment (PHQ-9, GAD-7, DAST-10, or CAGE) to the user, either as a full questionnaire or embedded naturally in conversation."
}

func (t *AdministerTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"assessment_type": {
				"type": "string",
				"enum": ["phq9", "gad7", "dast10", "cage"],
				"description": "Which instrument to administer"
			},
			"context": {
				"type": "string",
				"enum": ["full", "embedded", "follow-up"],
				"description": "How to present it: full questionnaire, embedded in conversation, or a follow-up check-in"
			}
		},
		"required": ["assessment_type"]
	}`)
}

func (t *AdministerTool) Group() domain.ToolGroup { return domain.GroupAssessment }

func (t *AdministerTool) Execute(_ context.Context, _ int64, act domain.Action) (string, error) {
	a, ok := act.(domain.AdministerAssessment)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	in, found := assess.Lookup(a.Kind)
	if !found {
		return "", fmt.Errorf("%w: %q", assess.ErrUnknownKind, a.Kind)
	}

	t.log.Info().Str("kind", string(a.Kind)).Str("context", a.Context).Msg("administering assessment")

	switch a.Context {
	case "embedded":
		return fmt.Sprintf(
			"Embed the following %s items naturally into the conversation, one or two at a time, asking about %s:\n\n%s\n\nCollect the user's answers and call score_assessment once all %d items are answered.",
			in.Title, in.Instructions, joinQuestions(in), in.ItemCount()), nil
	case "follow-up":
		return fmt.Sprintf(
			"This is a follow-up %s check-in. Remind the user they completed this before, then present the questions:\n\n%s",
			in.Title, assess.RenderQuestionnaire(in)), nil
	default:
		return assess.RenderQuestionnaire(in), nil
	}
}

func joinQuestions(in assess.Instrument) string {
	var s string
	for i, q := range in.Questions {
		s += fmt.Sprintf("%d. %s\n", i+1, q)
	}
	return s
}

// ScoreTool scores a completed assessment, stores the record, and renders
// the report with a comparison against the user's previous result.
type ScoreTool struct {
	db  *store.DB
	log *logging.Logger
}

// NewScoreTool creates the score_assessment tool.
func NewScoreTool(db *store.DB, log *logging.Logger) *ScoreTool {
	return &ScoreTool{db: db, log: log.Sub("tool.score")}
}

func (t *ScoreTool) Name() string { return domain.ToolScoreAssessment }

func (t *ScoreTool) Description() string {
	return "Score a completed assessment from the user's item answers. Stores the result and reports the total, severity interpretation, and change since the previous assessment."
}

func (t *ScoreTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"assessment_type": {
				"type": "string",
				"enum": ["phq9", "gad7", "dast10", "cage"],
				"description": "Which instrument was administered"
			},
			"scores": {
				"type": "array",
				"items": {"type": "integer"},
				"description": "The user's answer for each item, in order. Yes/no instruments use 1 for yes and 0 for no."
			}
		},
		"required": ["assessment_type", "scores"]
	}`)
}

func (t *ScoreTool) Group() domain.ToolGroup { return domain.GroupAssessment }

func (t *ScoreTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.ScoreAssessment)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	res, err := assess.Score(a.Kind, a.Items)
	if err != nil {
		return "", err
	}

	// Previous record is fetched before saving so the comparison is
	// against the prior assessment, not the one being recorded.
	var previous *domain.AssessmentRecord
	prior, err := t.db.ListAssessments(ctx, userID, a.Kind, 1)
	if err != nil {
		t.log.Warn().Err(err).Int64("user_id", userID).Msg("previous assessment lookup failed")
	} else if len(prior) > 0 {
		previous = &prior[0]
	}

	rec, err := t.db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: userID,
		Kind:   res.Kind,
		Total:  res.Total,
		Items:  res.Items,
	})
	if err != nil {
		return "", fmt.Errorf("storing assessment: %w", err)
	}

	t.log.Info().
		Int64("user_id", userID).
		Str("kind", string(res.Kind)).
		Int("total", res.Total).
		Str("severity", res.Severity).
		Int64("record_id", rec.ID).
		Msg("assessment scored")

	return assess.RenderReport(res, previous), nil
}
