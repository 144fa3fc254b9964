package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelOrdering(t *testing.T) {
	assert.True(t, RiskImminent.AtLeast(RiskHigh))
	assert.True(t, RiskHigh.AtLeast(RiskHigh))
	assert.False(t, RiskModerate.AtLeast(RiskHigh))
	assert.Equal(t, RiskHigh, RiskModerate.Max(RiskHigh))
	assert.Equal(t, RiskHigh, RiskHigh.Max(RiskLow))
}

func TestParseRiskLevel(t *testing.T) {
	l, ok := ParseRiskLevel("imminent")
	require.True(t, ok)
	assert.Equal(t, RiskImminent, l)

	_, ok = ParseRiskLevel("critical")
	assert.False(t, ok)
}

func TestParseActionVariants(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		group ToolGroup
	}{
		{ToolAdministerAssessment, `{"assessment_type":"phq9"}`, GroupAssessment},
		{ToolScoreAssessment, `{"assessment_type":"gad7","scores":[1,2,3,0,1,2,3]}`, GroupAssessment},
		{ToolRetrieveInformation, `{"query":"coping with worry"}`, GroupKnowledge},
		{ToolGetCBTExercise, `{"issue":"anxiety"}`, GroupKnowledge},
		{ToolGetCrisisProtocol, `{"risk_level":"high"}`, GroupKnowledge},
		{ToolGetPsychoeducation, `{"topic":"depression"}`, GroupKnowledge},
		{ToolSendTherapistAlert, `{"risk_level":"high","situation_summary":"sustained ideation"}`, GroupSafety},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, err := ParseAction(ActionRequest{Name: tt.name, Arguments: json.RawMessage(tt.args)})
			require.NoError(t, err)
			assert.Equal(t, tt.name, act.ActionName())
			assert.Equal(t, tt.group, act.Group())
			assert.Equal(t, tt.group, GroupOf(tt.name))
		})
	}
}

func TestParseActionUnknownName(t *testing.T) {
	act, err := ParseAction(ActionRequest{Name: "launch_rockets", Arguments: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, GroupUnknown, act.Group())
	assert.Equal(t, "launch_rockets", act.ActionName())
}

func TestParseActionMalformedArgs(t *testing.T) {
	_, err := ParseAction(ActionRequest{Name: ToolScoreAssessment, Arguments: json.RawMessage(`{"scores":"oops"}`)})
	assert.Error(t, err)
}

func TestParseActionEmptyArgs(t *testing.T) {
	act, err := ParseAction(ActionRequest{Name: ToolRetrieveInformation})
	require.NoError(t, err)
	assert.Equal(t, GroupKnowledge, act.Group())
}

func TestThreadAppendStampsTime(t *testing.T) {
	th := &Thread{ID: "t1"}
	th.Append(Message{Role: RoleUser, Content: "hello"})
	require.Len(t, th.Messages, 1)
	assert.False(t, th.Messages[0].Timestamp.IsZero())
	assert.False(t, th.Suspended())

	th.Pending = &ActionRequest{Name: ToolSendTherapistAlert}
	assert.True(t, th.Suspended())
}
