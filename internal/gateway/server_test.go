package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenproj/haven/internal/alert"
	"github.com/havenproj/haven/internal/config"
	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/graph"
	"github.com/havenproj/haven/internal/hooks"
	"github.com/havenproj/haven/internal/knowledge"
	"github.com/havenproj/haven/internal/llm"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/store"
	"github.com/havenproj/haven/internal/tools"
)

type fakeMailer struct {
	sent []alert.Alert
}

func (f *fakeMailer) SendAlert(_ context.Context, a alert.Alert) error {
	f.sent = append(f.sent, a)
	return nil
}

type fixture struct {
	srv    *httptest.Server
	db     *store.DB
	mailer *fakeMailer
	user   domain.User
	token  string
}

func newFixture(t *testing.T, decider llm.Decider, token string) *fixture {
	t.Helper()
	log := logging.New(nil, "silent")

	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	u, err := db.CreateUser(context.Background(), domain.User{Name: "Alex", TherapistEmail: "dr@example.com"})
	require.NoError(t, err)

	hm := hooks.NewManager(log)
	mailer := &fakeMailer{}

	reg := tools.NewRegistry()
	reg.Register(tools.NewAdministerTool(log))
	reg.Register(tools.NewScoreTool(db, log))
	reg.Register(tools.NewRetrieveTool(knowledge.NewStatic(), db, log))
	reg.Register(tools.NewTherapistAlertTool(db, mailer, "oncall@example.com", hm, nil, log))

	engine := graph.New(db, decider, nil, reg, hm, nil, log)

	cfg := config.Defaults()
	cfg.Server.Token = token
	s := New(cfg, db, engine, log)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, db: db, mailer: mailer, user: u, token: token}
}

func (f *fixture) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")
	resp := f.request(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "secret-token")

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/users/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays open for probes.
	resp2, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	// With the token the request goes through.
	resp3 := f.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", f.user.ID), nil)
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
}

func TestUserLifecycle(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")

	resp := f.request(t, http.MethodPost, "/api/users", map[string]any{
		"name":           "Sam",
		"therapistEmail": "care@example.com",
		"consentLevel":   "full",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.User](t, resp)
	assert.Equal(t, "Sam", created.Name)
	assert.NotZero(t, created.ID)

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.User](t, resp)
	assert.Equal(t, "care@example.com", got.TherapistEmail)

	resp = f.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", created.ID), map[string]any{
		"name":         "Sam",
		"consentLevel": "basic",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.User](t, resp)
	assert.Equal(t, "basic", updated.ConsentLevel)
	assert.Empty(t, updated.TherapistEmail)

	resp = f.request(t, http.MethodGet, "/api/users/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")

	resp := f.request(t, http.MethodPost, "/api/users", map[string]any{
		"name":           "Sam",
		"therapistEmail": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/api/users", map[string]any{
		"therapistEmail": "care@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatTurn(t *testing.T) {
	f := newFixture(t, llm.NewScripted(
		llm.Decision{Text: "I hear you. That sounds really hard."},
	), "")

	resp := f.request(t, http.MethodPost, "/api/chat", map[string]any{
		"userId":   f.user.ID,
		"threadId": "th-1",
		"message":  "I've been feeling down lately",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[graph.TurnResult](t, resp)
	assert.Equal(t, "th-1", result.ThreadID)
	assert.Equal(t, "I hear you. That sounds really hard.", result.Response)
	assert.False(t, result.RequiresApproval)

	resp = f.request(t, http.MethodGet, "/api/conversations/th-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thread := decode[domain.Thread](t, resp)
	assert.Len(t, thread.Messages, 2)
}

func TestChatValidation(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")

	resp := f.request(t, http.MethodPost, "/api/chat", map[string]any{
		"userId":   f.user.ID,
		"threadId": "th-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	raw, err := http.Post(f.srv.URL+"/api/chat", "application/json", strings.NewReader("{{"))
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestApprovalFlow(t *testing.T) {
	alertArgs := `{"risk_level":"imminent","situation_summary":"User described a plan."}`
	f := newFixture(t, llm.NewScripted(
		llm.Decision{
			Text: "I'm going to bring in your care team.",
			Action: &domain.ActionRequest{
				ID:        "call_alert",
				Name:      "send_therapist_alert",
				Arguments: json.RawMessage(alertArgs),
			},
		},
		llm.Decision{Text: "Your therapist has been notified. You are not alone."},
	), "")

	resp := f.request(t, http.MethodPost, "/api/chat", map[string]any{
		"userId":   f.user.ID,
		"threadId": "th-risk",
		"message":  "I can't do this anymore",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[graph.TurnResult](t, resp)
	assert.True(t, result.RequiresApproval)
	assert.Empty(t, f.mailer.sent)

	// A suspended conversation rejects further messages.
	resp = f.request(t, http.MethodPost, "/api/chat", map[string]any{
		"userId":   f.user.ID,
		"threadId": "th-risk",
		"message":  "hello?",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/api/approvals", map[string]any{
		"threadId": "th-risk",
		"approved": true,
		"approver": "dr@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decode[graph.TurnResult](t, resp)
	assert.False(t, resolved.RequiresApproval)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "dr@example.com", f.mailer.sent[0].To)

	// Replaying the decision conflicts.
	resp = f.request(t, http.MethodPost, "/api/approvals", map[string]any{
		"threadId": "th-risk",
		"approved": true,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestApprovalUnknownThread(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")

	resp := f.request(t, http.MethodPost, "/api/approvals", map[string]any{
		"threadId": "th-missing",
		"approved": false,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserHistoryEndpoints(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")
	ctx := context.Background()

	_, err := f.db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: f.user.ID,
		Kind:   domain.KindPHQ9,
		Total:  12,
		Items:  []int{1, 2, 1, 2, 1, 2, 1, 1, 1},
	})
	require.NoError(t, err)
	_, err = f.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      f.user.ID,
		Level:       domain.RiskModerate,
		Description: "elevated screening score",
		ActionTaken: "coping_strategies_provided",
	})
	require.NoError(t, err)

	resp := f.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d/assessments", f.user.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assessments := decode[map[string][]domain.AssessmentRecord](t, resp)
	require.Len(t, assessments["assessments"], 1)
	assert.Equal(t, 12, assessments["assessments"][0].Total)

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d/crisis-events", f.user.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[map[string][]domain.CrisisEvent](t, resp)
	require.Len(t, events["crisisEvents"], 1)
	assert.Equal(t, domain.RiskModerate, events["crisisEvents"][0].Level)

	resp = f.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d/conversations", f.user.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, llm.NewScripted(), "")
	resp := f.request(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
