package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/havenproj/haven/internal/alert"
	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/hooks"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/metrics"
	"github.com/havenproj/haven/internal/store"
)

// TherapistAlertTool notifies the user's care provider of detected risk.
// It only ever runs after an explicit approval decision; the engine
// enforces that, not the tool. The audit record is written before
// delivery is attempted, and a delivery failure is reported in the
// result text rather than raised, so the conversation can keep
// supporting the user either way.
type TherapistAlertTool struct {
	db               *store.DB
	mailer           alert.Mailer
	defaultRecipient string
	hooks            *hooks.Manager
	metrics          *metrics.Metrics
	log              *logging.Logger
}

// NewTherapistAlertTool creates the send_therapist_alert tool.
// defaultRecipient receives alerts for users with no therapist on file.
func NewTherapistAlertTool(db *store.DB, mailer alert.Mailer, defaultRecipient string, hm *hooks.Manager, mt *metrics.Metrics, log *logging.Logger) *TherapistAlertTool {
	return &TherapistAlertTool{
		db:               db,
		mailer:           mailer,
		defaultRecipient: defaultRecipient,
		hooks:            hm,
		metrics:          mt,
		log:              log.Sub("tool.alert"),
	}
}

func (t *TherapistAlertTool) Name() string { return domain.ToolSendTherapistAlert }

func (t *TherapistAlertTool) Description() string {
	return "Notify the user's therapist about detected risk. Use for high or imminent risk situations. Requires human approval before it executes."
}

func (t *TherapistAlertTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"risk_level": {
				"type": "string",
				"enum": ["low", "moderate", "high", "imminent"],
				"description": "The assessed risk level prompting the alert"
			},
			"situation_summary": {"type": "string", "description": "Clear summary of the situation for the therapist"},
			"additional_notes": {"type": "string", "description": "Relevant assessment scores or context"}
		},
		"required": ["risk_level", "situation_summary"]
	}`)
}

func (t *TherapistAlertTool) Group() domain.ToolGroup { return domain.GroupSafety }

func (t *TherapistAlertTool) Execute(ctx context.Context, userID int64, act domain.Action) (string, error) {
	a, ok := act.(domain.SendTherapistAlert)
	if !ok {
		return "", wrongAction(t.Name(), act)
	}

	level, ok := domain.ParseRiskLevel(a.RiskLevel)
	if !ok {
		return "", fmt.Errorf("invalid risk level %q", a.RiskLevel)
	}

	// The audit record comes first. If the alert cannot be delivered the
	// event trail still shows risk was detected and escalation attempted.
	ev, err := t.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      userID,
		Level:       level,
		Description: a.Summary,
		ActionTaken: "therapist_alert_requested",
	})
	if err != nil {
		t.log.Error().Err(err).Int64("user_id", userID).Msg("crisis event write failed")
		t.hooks.Emit(ctx, hooks.EventAuditWriteFailed, map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return "", fmt.Errorf("recording crisis event: %w", err)
	}
	t.hooks.Emit(ctx, hooks.EventCrisisEventRecorded, map[string]any{
		"user_id":    userID,
		"event_id":   ev.ID,
		"risk_level": string(level),
	})

	recipient, userName := t.recipient(ctx, userID)
	if recipient == "" {
		t.log.Error().Int64("user_id", userID).Msg("no alert recipient available")
		return "The alert could not be sent: no therapist is on file for this user and no default recipient is configured. " +
			"The risk has been recorded. Continue supporting the user and encourage them to contact crisis services directly.", nil
	}

	threadID, _ := ctx.Value(threadIDKey{}).(string)
	sendErr := t.mailer.SendAlert(ctx, alert.Alert{
		To:        recipient,
		UserName:  userName,
		UserID:    userID,
		ThreadID:  threadID,
		RiskLevel: level,
		Summary:   a.Summary,
		Notes:     a.Notes,
		Timestamp: time.Now(),
	})

	if sendErr != nil {
		t.metrics.AlertDeliveryFailed()
		t.hooks.Emit(ctx, hooks.EventAlertDeliveryFailed, map[string]any{
			"user_id": userID,
			"error":   sendErr.Error(),
		})
		if _, err := t.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
			UserID:      userID,
			Level:       level,
			Description: "Alert delivery failed: " + sendErr.Error(),
			ActionTaken: "therapist_alert_delivery_failed",
		}); err != nil {
			t.log.Error().Err(err).Int64("user_id", userID).Msg("delivery failure event write failed")
		}
		return "The therapist alert could not be delivered right now; the care team will see the recorded risk event. " +
			"Continue supporting the user and share crisis resources directly (call or text 988).", nil
	}

	if _, err := t.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      userID,
		Level:       level,
		Description: "Therapist alert delivered to " + recipient,
		ActionTaken: "therapist_alert_sent",
	}); err != nil {
		t.log.Error().Err(err).Int64("user_id", userID).Msg("delivery confirmation event write failed")
	}

	t.log.Info().Int64("user_id", userID).Str("risk_level", string(level)).Msg("therapist alert sent")
	return "The therapist has been notified. Let the user know their care team is aware and continue supporting them with appropriate crisis resources.", nil
}

func (t *TherapistAlertTool) recipient(ctx context.Context, userID int64) (email, name string) {
	u, err := t.db.GetUser(ctx, userID)
	if err != nil {
		t.log.Warn().Err(err).Int64("user_id", userID).Msg("user lookup failed, using default recipient")
		return t.defaultRecipient, "Unknown user"
	}
	if u.TherapistEmail != "" {
		return u.TherapistEmail, u.Name
	}
	return t.defaultRecipient, u.Name
}

// threadIDKey carries the active thread ID to tools that include it in
// outbound notifications.
type threadIDKey struct{}

// WithThreadID tags a context with the active thread ID.
func WithThreadID(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, threadIDKey{}, threadID)
}
