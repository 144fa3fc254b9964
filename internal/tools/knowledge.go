package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/knowledge"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/store"
)

// knowledgeBase is shared plumbing for the four retrieval tools: the
// retriever itself plus the intervention audit trail. Every successful
// retrieval that delivers an intervention to the user is logged as a
// low-risk event so the care history shows what was offered.
type knowledgeBase struct {
	retriever knowledge.Retriever
	db        *store.DB
	log       *logging.Logger
}

func (k *knowledgeBase) logIntervention(ctx context.Context, userID int64, action, description string) {
	if k.db == nil {
		return
	}
	_, err := k.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      userID,
		Level:       domain.RiskLow,
		Description: description,
		ActionTaken: action,
	})
	if err != nil {
		k.log.Warn().Err(err).Int64("user_id", userID).Str("action", action).Msg("intervention log write failed")
	}
}

func renderSnippets(snippets []knowledge.Snippet) string {
	if len(snippets) == 0 {
		return "No matching content was found in the knowledge base. Let the user know and offer to help in another way; do not fabricate clinical material."
	}
	var b strings.Builder
	for i, s := range snippets {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		if s.Title != "" {
			fmt.Fprintf(&b, "## %s\n", s.Title)
		}
		b.WriteString(s.Content)
		if s.Source != "" {
			fmt.Fprintf(&b, "\n(Source: %s)", s.Source)
		}
	}
	return b.String()
}

// RetrieveTool is general semantic search over the knowledge base.
type RetrieveTool struct {
	knowledgeBase
}

// NewRetrieveTool creates the retrieve_information tool.
func NewRetrieveTool(r knowledge.Retriever, db *store.DB, log *logging.Logger) *RetrieveTool {
	return &RetrieveTool{knowledgeBase{retriever: r, db: db, log: log.Sub("tool.retrieve")}}
}

func (t *RetrieveTool) Name() string { return domain.ToolRetrieveInformation }

func (t *RetrieveTool) Description() string {
	return "Search the evidence-based knowledge base for content relevant to the user's situation."
}

func (t *RetrieveTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "What to search for"},
			"category": {
				"type": "string",
				"enum": ["cbt_exercise", "psychoeducation", "crisis_protocol", "general"],
				"description": "Optional category filter"
			},
			"num_results": {"type": "integer", "description": "How many results to return, default 3"}
		},
		"required": ["query"]
	}`)
}

func (t *RetrieveTool) Group() domain.ToolGroup { return domain.GroupKnowledge }

func (t *RetrieveTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.RetrieveInformation)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	snippets, err := t.retriever.Retrieve(ctx, a.Query, a.Category, a.Limit)
	if err != nil {
		return "", err
	}
	return renderSnippets(snippets), nil
}

// CBTExerciseTool retrieves a CBT exercise matched to the user's issue.
type CBTExerciseTool struct {
	knowledgeBase
}

// NewCBTExerciseTool creates the get_cbt_exercise tool.
func NewCBTExerciseTool(r knowledge.Retriever, db *store.DB, log *logging.Logger) *CBTExerciseTool {
	return &CBTExerciseTool{knowledgeBase{retriever: r, db: db, log: log.Sub("tool.cbt")}}
}

func (t *CBTExerciseTool) Name() string { return domain.ToolGetCBTExercise }

func (t *CBTExerciseTool) Description() string {
	return "Retrieve a CBT exercise or worksheet for the user's specific issue, such as a thought record for cognitive distortions or behavioral activation for low mood."
}

func (t *CBTExerciseTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"issue": {"type": "string", "description": "The issue to address, e.g. negative thoughts, low motivation, cravings"},
			"distortion_type": {"type": "string", "description": "A specific cognitive distortion if identified"},
			"exercise_type": {"type": "string", "description": "A specific exercise type if the user asked for one"}
		},
		"required": ["issue"]
	}`)
}

func (t *CBTExerciseTool) Group() domain.ToolGroup { return domain.GroupKnowledge }

func (t *CBTExerciseTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.GetCBTExercise)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	query := a.Issue
	if a.Distortion != "" {
		query += " " + a.Distortion
	}
	if a.ExerciseType != "" {
		query += " " + a.ExerciseType
	}

	snippets, err := t.retriever.Retrieve(ctx, query, knowledge.CategoryCBT, 2)
	if err != nil {
		return "", err
	}
	if len(snippets) > 0 {
		t.logIntervention(ctx, userID, "intervention_cbt_exercise", "CBT exercise offered: "+a.Issue)
	}
	return renderSnippets(snippets), nil
}

// CrisisProtocolTool retrieves the crisis protocol for a risk level.
type CrisisProtocolTool struct {
	knowledgeBase
}

// NewCrisisProtocolTool creates the get_crisis_protocol tool.
func NewCrisisProtocolTool(r knowledge.Retriever, db *store.DB, log *logging.Logger) *CrisisProtocolTool {
	return &CrisisProtocolTool{knowledgeBase{retriever: r, db: db, log: log.Sub("tool.crisis")}}
}

func (t *CrisisProtocolTool) Name() string { return domain.ToolGetCrisisProtocol }

func (t *CrisisProtocolTool) Description() string {
	return "Retrieve the crisis intervention protocol matching the user's current risk level. Use immediately in any crisis situation."
}

func (t *CrisisProtocolTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"risk_level": {
				"type": "string",
				"enum": ["low", "moderate", "high", "imminent"],
				"description": "The user's assessed risk level"
			}
		},
		"required": ["risk_level"]
	}`)
}

func (t *CrisisProtocolTool) Group() domain.ToolGroup { return domain.GroupKnowledge }

func (t *CrisisProtocolTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.GetCrisisProtocol)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	level, ok := domain.ParseRiskLevel(a.RiskLevel)
	if !ok {
		return "", fmt.Errorf("invalid risk level %q", a.RiskLevel)
	}

	snippets, err := t.retriever.Retrieve(ctx, string(level)+" risk crisis protocol", knowledge.CategoryCrisisProtocol, 2)
	if err != nil {
		return "", err
	}
	if len(snippets) > 0 {
		t.logIntervention(ctx, userID, "intervention_crisis_protocol", "Crisis protocol delivered for level: "+string(level))
	}
	return renderSnippets(snippets), nil
}

// PsychoeducationTool retrieves educational content on a topic.
type PsychoeducationTool struct {
	knowledgeBase
}

// NewPsychoeducationTool creates the get_psychoeducation tool.
func NewPsychoeducationTool(r knowledge.Retriever, db *store.DB, log *logging.Logger) *PsychoeducationTool {
	return &PsychoeducationTool{knowledgeBase{retriever: r, db: db, log: log.Sub("tool.psychoed")}}
}

func (t *PsychoeducationTool) Name() string { return domain.ToolGetPsychoeducation }

func (t *PsychoeducationTool) Description() string {
	return "Retrieve educational material about a mental health or substance use topic, such as cognitive distortions, anxiety, or the addiction cycle."
}

func (t *PsychoeducationTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"topic": {"type": "string", "description": "The topic to explain"},
			"format_type": {"type": "string", "description": "Optional presentation hint, e.g. brief or detailed"}
		},
		"required": ["topic"]
	}`)
}

func (t *PsychoeducationTool) Group() domain.ToolGroup { return domain.GroupKnowledge }

func (t *PsychoeducationTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.GetPsychoeducation)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	snippets, err := t.retriever.Retrieve(ctx, a.Topic, knowledge.CategoryPsychoeducation, 2)
	if err != nil {
		return "", err
	}
	if len(snippets) > 0 {
		t.logIntervention(ctx, userID, "intervention_psychoeducation", "Psychoeducation delivered: "+a.Topic)
	}
	return renderSnippets(snippets), nil
}
