package store

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(io.Discard, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB) domain.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), domain.User{
		Name:           "Alex",
		TherapistEmail: "therapist@example.com",
	})
	require.NoError(t, err)
	return u
}

func TestUserRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "basic", u.ConsentLevel)

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, "therapist@example.com", got.TherapistEmail)
}

func TestEnsureUserCreatesAndPreserves(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.EnsureUser(ctx, 42))
	got, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "User", got.Name)
	assert.Equal(t, "basic", got.ConsentLevel)

	// An existing row is left alone.
	u := createTestUser(t, db)
	require.NoError(t, db.EnsureUser(ctx, u.ID))
	got, err = db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, "therapist@example.com", got.TherapistEmail)
}

func TestGetOrCreateThreadCreatesUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	th, err := db.GetOrCreateThread(ctx, "th-new", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), th.UserID)

	// The lazily created user satisfies the assessment foreign key.
	_, err = db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: 7,
		Kind:   domain.KindPHQ9,
		Total:  4,
		Items:  []int{1, 1, 1, 1, 0, 0, 0, 0, 0},
	})
	require.NoError(t, err)
}

func TestGetUserNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db)
	u.ConsentLevel = "full"
	require.NoError(t, db.UpdateUser(ctx, u))

	got, err := db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "full", got.ConsentLevel)

	err = db.UpdateUser(ctx, domain.User{ID: 999, Name: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssessmentsMostRecentFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	first, err := db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: u.ID,
		Kind:   domain.KindPHQ9,
		Total:  10,
		Items:  []int{2, 2, 1, 2, 1, 1, 0, 1, 0},
	})
	require.NoError(t, err)

	second, err := db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: u.ID,
		Kind:   domain.KindPHQ9,
		Total:  7,
		Items:  []int{1, 1, 1, 1, 1, 1, 0, 1, 0},
	})
	require.NoError(t, err)

	_, err = db.SaveAssessment(ctx, domain.AssessmentRecord{
		UserID: u.ID,
		Kind:   domain.KindGAD7,
		Total:  5,
		Items:  []int{1, 1, 1, 1, 1, 0, 0},
	})
	require.NoError(t, err)

	recs, err := db.ListAssessments(ctx, u.ID, domain.KindPHQ9, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, second.ID, recs[0].ID)
	assert.Equal(t, first.ID, recs[1].ID)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 0, 1, 0}, recs[0].Items)

	limited, err := db.ListAssessments(ctx, u.ID, domain.KindPHQ9, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 7, limited[0].Total)

	all, err := db.ListAllAssessments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCrisisEventsAppendOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	_, err := db.LatestCrisisEvent(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      u.ID,
		Level:       domain.RiskModerate,
		Description: "elevated distress during check-in",
		ActionTaken: "coping_strategies_offered",
	})
	require.NoError(t, err)

	high, err := db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      u.ID,
		Level:       domain.RiskHigh,
		Description: "PHQ-9 item 9 elevated",
		ActionTaken: "therapist_alert_requested",
	})
	require.NoError(t, err)

	latest, err := db.LatestCrisisEvent(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, high.ID, latest.ID)
	assert.Equal(t, domain.RiskHigh, latest.Level)

	evs, err := db.ListCrisisEvents(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, evs, 2)
}

func TestThreadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	th, err := db.GetOrCreateThread(ctx, "thread-1", u.ID)
	require.NoError(t, err)
	assert.Empty(t, th.Messages)
	assert.False(t, th.Suspended())

	th.Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	th.Append(domain.Message{Role: domain.RoleAssistant, Content: "hi, how are you feeling today?"})
	require.NoError(t, db.SaveThread(ctx, th))

	got, err := db.GetThread(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hello", got.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, got.Messages[1].Role)

	// existing thread comes back as-is
	again, err := db.GetOrCreateThread(ctx, "thread-1", u.ID)
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2)
}

func TestThreadPendingActionPersists(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	th, err := db.GetOrCreateThread(ctx, "thread-2", u.ID)
	require.NoError(t, err)

	th.Pending = &domain.ActionRequest{
		ID:        "call_abc",
		Name:      domain.ToolSendTherapistAlert,
		Arguments: json.RawMessage(`{"risk_level":"high","situation_summary":"sustained ideation"}`),
	}
	require.NoError(t, db.SaveThread(ctx, th))

	got, err := db.GetThread(ctx, "thread-2")
	require.NoError(t, err)
	require.True(t, got.Suspended())
	assert.Equal(t, domain.ToolSendTherapistAlert, got.Pending.Name)
	assert.Equal(t, "call_abc", got.Pending.ID)

	// clearing the pending action persists too
	got.Pending = nil
	require.NoError(t, db.SaveThread(ctx, got))

	cleared, err := db.GetThread(ctx, "thread-2")
	require.NoError(t, err)
	assert.False(t, cleared.Suspended())
}

func TestListThreads(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	_, err := db.GetOrCreateThread(ctx, "t-a", u.ID)
	require.NoError(t, err)
	_, err = db.GetOrCreateThread(ctx, "t-b", u.ID)
	require.NoError(t, err)

	threads, err := db.ListThreads(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 2)
}

func TestSaveThreadNotFound(t *testing.T) {
	db := openTestDB(t)

	err := db.SaveThread(context.Background(), &domain.Thread{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}
