package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/logging"
)

func TestScriptedFollowsScript(t *testing.T) {
	s := NewScripted(
		Decision{Text: "first"},
		Decision{Text: "second"},
	)
	ctx := context.Background()

	d1, err := s.Decide(ctx, nil, "", domain.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "first", d1.Text)

	d2, err := s.Decide(ctx, nil, "", domain.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "second", d2.Text)

	// The script repeats its last entry once exhausted.
	d3, err := s.Decide(ctx, nil, "", domain.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "second", d3.Text)
	assert.Equal(t, 3, s.Calls())
}

func TestScriptedEmptyScript(t *testing.T) {
	s := NewScripted()
	d, err := s.Decide(context.Background(), nil, "", domain.Profile{})
	require.NoError(t, err)
	assert.NotEmpty(t, d.Text)
	assert.Nil(t, d.Action)
}

func TestScriptedError(t *testing.T) {
	s := NewScripted(Decision{Text: "unreachable"})
	s.Err = ErrUnavailable

	_, err := s.Decide(context.Background(), nil, "", domain.Profile{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBuildContext(t *testing.T) {
	profile := domain.Profile{
		UserID:         1,
		Name:           "Alex",
		ConsentLevel:   "basic",
		RiskLevel:      domain.RiskModerate,
		TherapistEmail: "dr@example.com",
		LatestScores: []domain.AssessmentScore{
			{Kind: domain.KindPHQ9, Total: 14, When: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	ctxBlock := buildContext("User is coping with job loss.", profile)
	assert.Contains(t, ctxBlock, "Name: Alex")
	assert.Contains(t, ctxBlock, "Current risk level: moderate")
	assert.Contains(t, ctxBlock, "Therapist on file: yes")
	assert.Contains(t, ctxBlock, "Latest PHQ9 score: 14 (2026-08-01)")
	assert.Contains(t, ctxBlock, "job loss")
}

func TestBuildContextNoTherapist(t *testing.T) {
	ctxBlock := buildContext("", domain.DefaultProfile(1))
	assert.Contains(t, ctxBlock, "Therapist on file: no")
	assert.NotContains(t, ctxBlock, "Earlier conversation summary")
}

func TestBuildMessagesToolPairing(t *testing.T) {
	o := &OpenAI{log: logging.New(nil, "silent")}

	req := &domain.ActionRequest{
		ID:        "call_1",
		Name:      "score_assessment",
		Arguments: json.RawMessage(`{"assessmentType":"phq9"}`),
	}
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "I finished the questionnaire"},
		{Role: domain.RoleAssistant, Content: "", Action: req},
		{Role: domain.RoleTool, Content: "PHQ-9 total: 12", ToolName: "score_assessment", Action: req},
		{Role: domain.RoleAssistant, Content: "Your score suggests moderate symptoms."},
	}

	msgs := o.buildMessages(history, "summary text", domain.DefaultProfile(1))
	require.Len(t, msgs, 5)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "summary text")

	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "call_1", msgs[2].ToolCalls[0].ID)
	assert.Equal(t, "score_assessment", msgs[2].ToolCalls[0].Function.Name)

	assert.Equal(t, openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.Equal(t, "score_assessment", msgs[3].Name)

	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[4].Role)
	assert.Empty(t, msgs[4].ToolCalls)
}
