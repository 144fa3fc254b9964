// Package graph runs the conversation state machine: decide, execute
// tools, loop, and suspend for human approval before any safety action.
package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/havenproj/haven/internal/assess"
	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/hooks"
	"github.com/havenproj/haven/internal/llm"
	"github.com/havenproj/haven/internal/logging"
	"github.com/havenproj/haven/internal/metrics"
	"github.com/havenproj/haven/internal/risk"
	"github.com/havenproj/haven/internal/store"
	"github.com/havenproj/haven/internal/tools"
)

const (
	// defaultMaxIters bounds the decide/execute loop within one turn so a
	// misbehaving model cannot spin forever.
	defaultMaxIters = 8

	// summaryInterval is how many messages accumulate between rolling
	// summary refreshes.
	summaryInterval = 10
)

// Summarizer condenses conversation history. Optional; threads work
// without one, they just never build a rolling summary.
type Summarizer interface {
	Summarize(ctx context.Context, previous string, msgs []domain.Message) (string, error)
}

// TurnResult is the outcome of one submitted message or one applied
// approval decision.
type TurnResult struct {
	ThreadID         string                `json:"threadId"`
	Response         string                `json:"response"`
	RequiresApproval bool                  `json:"requiresApproval"`
	Pending          *domain.ActionRequest `json:"pendingAction,omitempty"`
	RiskLevel        domain.RiskLevel      `json:"riskLevel"`
}

// Engine drives conversation turns.
type Engine struct {
	db         *store.DB
	decider    llm.Decider
	summarizer Summarizer
	registry   *tools.Registry
	hooks      *hooks.Manager
	metrics    *metrics.Metrics
	log        *logging.Logger
	locks      *threadLocks
	maxIters   int
}

// New creates an engine. summarizer may be nil.
func New(db *store.DB, decider llm.Decider, summarizer Summarizer, registry *tools.Registry, hm *hooks.Manager, mt *metrics.Metrics, log *logging.Logger) *Engine {
	return &Engine{
		db:         db,
		decider:    decider,
		summarizer: summarizer,
		registry:   registry,
		hooks:      hm,
		metrics:    mt,
		log:        log.Sub("graph"),
		locks:      newThreadLocks(),
		maxIters:   defaultMaxIters,
	}
}

// Submit processes one user message on a thread and runs the turn to a
// terminal response or a suspension. A thread suspended for approval
// rejects new messages with ErrApprovalPending; a decider failure leaves
// the thread untouched so the client can retry.
func (e *Engine) Submit(ctx context.Context, threadID string, userID int64, text string) (*TurnResult, error) {
	unlock := e.locks.lock(threadID)
	defer unlock()

	log := e.log.WithThread(threadID)

	thread, err := e.db.GetOrCreateThread(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if thread.Suspended() {
		log.Warn().Msg("message rejected, approval pending")
		return nil, ErrApprovalPending
	}

	profile := e.db.LoadProfile(ctx, thread.UserID)
	e.hooks.Emit(ctx, hooks.EventTurnStarted, map[string]any{
		"thread":  threadID,
		"user_id": thread.UserID,
	})

	thread.Append(domain.Message{Role: domain.RoleUser, Content: text})

	// Free-text crisis indicators in the incoming message set the floor
	// for this turn before the model says anything.
	turnRisk := risk.Classify(risk.Signals{Proposed: profile.RiskLevel, Text: text})

	result, err := e.runLoop(ctx, thread, profile, turnRisk, log)
	if err != nil {
		e.metrics.TurnCompleted("failed")
		return nil, err
	}

	e.refreshSummary(ctx, thread, log)

	if err := e.db.SaveThread(ctx, thread); err != nil {
		e.metrics.TurnCompleted("failed")
		return nil, err
	}

	outcome := "completed"
	if result.RequiresApproval {
		outcome = "suspended"
	}
	e.metrics.TurnCompleted(outcome)
	e.hooks.Emit(ctx, hooks.EventTurnCompleted, map[string]any{
		"thread":  threadID,
		"outcome": outcome,
	})
	return result, nil
}

// ResolveApproval applies a human decision to a suspended thread. An
// approved action executes first and the cleared pending slot is
// persisted immediately after, before any continuation runs: a crash in
// between can at worst re-send an alert, never drop one. Replayed
// decisions get ErrNoPendingAction.
func (e *Engine) ResolveApproval(ctx context.Context, threadID string, approved bool, approver string) (*TurnResult, error) {
	unlock := e.locks.lock(threadID)
	defer unlock()

	log := e.log.WithThread(threadID)

	thread, err := e.db.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.Suspended() {
		return nil, ErrNoPendingAction
	}

	pending := thread.Pending
	thread.Pending = nil

	decision := "denied"
	if approved {
		decision = "approved"
	}
	log.Info().Str("decision", decision).Str("approver", approver).Str("tool", pending.Name).Msg("approval resolved")

	if !approved {
		thread.Append(domain.Message{
			Role:     domain.RoleTool,
			Content:  "The escalation was reviewed and declined by the care team. Continue supporting the user directly and share crisis resources as appropriate.",
			ToolName: pending.Name,
			Action:   pending,
		})
		if err := e.db.SaveThread(ctx, thread); err != nil {
			return nil, err
		}
		e.metrics.ApprovalResolved(decision)
		e.hooks.Emit(ctx, hooks.EventApprovalResolved, map[string]any{
			"thread":   threadID,
			"approved": false,
			"approver": approver,
		})
		return &TurnResult{
			ThreadID: threadID,
			Response: "The care team reviewed the situation and will follow up through other channels. I'm still here with you; if you are in immediate danger, please call or text 988.",
		}, nil
	}

	resultText := e.executeAction(ctx, thread, *pending, log)
	thread.Append(domain.Message{
		Role:     domain.RoleTool,
		Content:  resultText,
		ToolName: pending.Name,
		Action:   pending,
	})

	// Persist the resolution before continuing: once the safety action
	// has run, no crash may bring the pending slot back.
	if err := e.db.SaveThread(ctx, thread); err != nil {
		return nil, err
	}
	e.metrics.ApprovalResolved(decision)
	e.hooks.Emit(ctx, hooks.EventApprovalResolved, map[string]any{
		"thread":   threadID,
		"approved": true,
		"approver": approver,
	})

	profile := e.db.LoadProfile(ctx, thread.UserID)
	result, err := e.runLoop(ctx, thread, profile, profile.RiskLevel, log)
	if err != nil {
		// The safety action already ran; degrade to its result text
		// rather than failing the resolution.
		log.Warn().Err(err).Msg("continuation failed after approval, returning tool result")
		return &TurnResult{ThreadID: thread.ID, Response: resultText}, nil
	}

	if err := e.db.SaveThread(ctx, thread); err != nil {
		return nil, err
	}
	return result, nil
}

// runLoop is the decide/execute cycle. It mutates the thread in memory
// and returns when the model produces a plain reply, a safety action
// suspends the thread, or the iteration budget runs out. The caller
// persists the thread.
func (e *Engine) runLoop(ctx context.Context, thread *domain.Thread, profile domain.Profile, turnRisk domain.RiskLevel, log *logging.Logger) (*TurnResult, error) {
	// Set when the backstop raises the turn to an escalation level; the
	// turn may not terminate un-suspended while this holds.
	escalationDue := false

	for i := 0; i < e.maxIters; i++ {
		decision, err := e.decider.Decide(ctx, thread.Messages, thread.Summary, profile)
		if err != nil {
			return nil, err
		}

		thread.Append(domain.Message{
			Role:    domain.RoleAssistant,
			Content: decision.Text,
			Action:  decision.Action,
		})

		if decision.Action == nil {
			if escalationDue {
				return e.suspendForEscalation(ctx, thread, turnRisk, decision.Text, log), nil
			}
			return &TurnResult{ThreadID: thread.ID, Response: decision.Text, RiskLevel: turnRisk}, nil
		}

		act, err := domain.ParseAction(*decision.Action)
		if err != nil {
			// Malformed arguments for a known tool: feed the error back
			// so the model can correct itself on the next iteration.
			log.Warn().Err(err).Str("tool", decision.Action.Name).Msg("malformed tool arguments")
			thread.Append(domain.Message{
				Role:     domain.RoleTool,
				Content:  "The tool arguments were invalid: " + err.Error(),
				ToolName: decision.Action.Name,
				IsError:  true,
				Action:   decision.Action,
			})
			continue
		}

		switch act.Group() {
		case domain.GroupUnknown:
			// Fail safe: never guess at an unrecognized capability.
			log.Warn().Str("tool", decision.Action.Name).Msg("unrecognized tool requested, terminating turn")
			thread.Append(domain.Message{
				Role:     domain.RoleTool,
				Content:  fmt.Sprintf("Unknown tool %q; nothing was executed.", decision.Action.Name),
				ToolName: decision.Action.Name,
				IsError:  true,
				Action:   decision.Action,
			})
			e.metrics.ToolExecuted(string(domain.GroupUnknown), "error")
			if escalationDue {
				return e.suspendForEscalation(ctx, thread, turnRisk, "", log), nil
			}
			return &TurnResult{
				ThreadID:  thread.ID,
				Response:  "I'm sorry, I wasn't able to complete that step. I'm still here with you; could you tell me more about how you're doing?",
				RiskLevel: turnRisk,
			}, nil

		case domain.GroupSafety:
			// The mandatory interrupt: nothing outward-facing runs
			// without a human decision. The thread suspends here.
			thread.Pending = decision.Action
			e.metrics.EscalationProposed()
			e.hooks.Emit(ctx, hooks.EventEscalationProposed, map[string]any{
				"thread":  thread.ID,
				"user_id": thread.UserID,
				"tool":    decision.Action.Name,
			})
			log.Info().Str("tool", decision.Action.Name).Msg("safety action suspended for approval")

			response := decision.Text
			if response == "" {
				response = "I'm concerned about your safety, so I've asked your care team to review the situation. While that happens, I'm staying right here with you. If you are in immediate danger, please call or text 988."
			}
			return &TurnResult{
				ThreadID:         thread.ID,
				Response:         response,
				RequiresApproval: true,
				Pending:          decision.Action,
				RiskLevel:        turnRisk,
			}, nil

		default:
			e.executeToolAction(ctx, thread, *decision.Action, act, log)
			// The self-harm item backstop runs on the raw scoring
			// request, independent of what the tool or model reports.
			if score, ok := act.(domain.ScoreAssessment); ok {
				before := turnRisk
				turnRisk = e.applyBackstop(ctx, thread, score, turnRisk, log)
				if turnRisk != before && risk.EscalationRequired(turnRisk) {
					escalationDue = true
				}
			}
		}
	}

	log.Warn().Int("max_iters", e.maxIters).Msg("iteration budget exhausted")
	if escalationDue {
		return e.suspendForEscalation(ctx, thread, turnRisk, "", log), nil
	}
	return &TurnResult{
		ThreadID:  thread.ID,
		Response:  "I needed to pause there. Let's pick this back up; how are you feeling right now?",
		RiskLevel: turnRisk,
	}, nil
}

// suspendForEscalation suspends the thread on an engine-built therapist
// alert. It runs when the backstop raised the turn to an escalation
// level but the model ended the turn without proposing the alert itself;
// the floor wins over the model's judgment here too.
func (e *Engine) suspendForEscalation(ctx context.Context, thread *domain.Thread, turnRisk domain.RiskLevel, text string, log *logging.Logger) *TurnResult {
	args, _ := json.Marshal(domain.SendTherapistAlert{
		RiskLevel: string(turnRisk),
		Summary:   "A depression screening scored the self-harm item above zero and the conversation ended without an escalation request.",
	})
	req := &domain.ActionRequest{
		ID:        "backstop_" + uuid.New().String(),
		Name:      domain.ToolSendTherapistAlert,
		Arguments: args,
	}

	thread.Append(domain.Message{Role: domain.RoleAssistant, Action: req})
	thread.Pending = req

	e.metrics.EscalationProposed()
	e.hooks.Emit(ctx, hooks.EventEscalationProposed, map[string]any{
		"thread":  thread.ID,
		"user_id": thread.UserID,
		"tool":    req.Name,
		"source":  "backstop",
	})
	log.Warn().Str("level", string(turnRisk)).Msg("escalation enforced at turn end")

	response := "I'm concerned about your safety, so I've asked your care team to review the situation. While that happens, I'm staying right here with you. If you are in immediate danger, please call or text 988."
	if text != "" {
		response = text + "\n\nI've also asked your care team to check in on how you're doing. If you are in immediate danger, please call or text 988."
	}
	return &TurnResult{
		ThreadID:         thread.ID,
		Response:         response,
		RequiresApproval: true,
		Pending:          req,
		RiskLevel:        turnRisk,
	}
}

// executeToolAction runs a non-safety tool and appends its result to the
// thread. Tool failures become error-flagged tool messages, not turn
// failures.
func (e *Engine) executeToolAction(ctx context.Context, thread *domain.Thread, req domain.ActionRequest, act domain.Action, log *logging.Logger) string {
	tool, ok := e.registry.Get(req.Name)
	if !ok {
		// Known group but nothing registered; treat like a tool error.
		msg := fmt.Sprintf("Tool %q is not available.", req.Name)
		thread.Append(domain.Message{Role: domain.RoleTool, Content: msg, ToolName: req.Name, IsError: true, Action: &req})
		e.metrics.ToolExecuted(string(act.Group()), "error")
		return msg
	}

	toolCtx := tools.WithThreadID(ctx, thread.ID)
	result, err := tool.Execute(toolCtx, thread.UserID, act)
	if err != nil {
		log.Warn().Err(err).Str("tool", req.Name).Msg("tool execution failed")
		result = "The tool failed: " + err.Error()
		thread.Append(domain.Message{Role: domain.RoleTool, Content: result, ToolName: req.Name, IsError: true, Action: &req})
		e.metrics.ToolExecuted(string(act.Group()), "error")
		return result
	}

	thread.Append(domain.Message{Role: domain.RoleTool, Content: result, ToolName: req.Name, Action: &req})
	e.metrics.ToolExecuted(string(act.Group()), "ok")
	return result
}

// executeAction runs an approved safety action. Failures degrade to
// descriptive text; the approval is already spent either way.
func (e *Engine) executeAction(ctx context.Context, thread *domain.Thread, req domain.ActionRequest, log *logging.Logger) string {
	act, err := domain.ParseAction(req)
	if err != nil {
		log.Error().Err(err).Str("tool", req.Name).Msg("approved action no longer parses")
		return "The approved action could not be executed: " + err.Error()
	}

	tool, ok := e.registry.Get(req.Name)
	if !ok {
		return fmt.Sprintf("Tool %q is not available.", req.Name)
	}

	toolCtx := tools.WithThreadID(ctx, thread.ID)
	result, err := tool.Execute(toolCtx, thread.UserID, act)
	if err != nil {
		log.Error().Err(err).Str("tool", req.Name).Msg("approved action failed")
		e.metrics.ToolExecuted(string(act.Group()), "error")
		return "The approved action failed: " + err.Error()
	}
	e.metrics.ToolExecuted(string(act.Group()), "ok")
	return result
}

// applyBackstop raises the turn's risk level from the self-harm item of
// a just-scored depression assessment and records the elevation in the
// audit log. The backstop always wins over the model's judgment.
func (e *Engine) applyBackstop(ctx context.Context, thread *domain.Thread, score domain.ScoreAssessment, turnRisk domain.RiskLevel, log *logging.Logger) domain.RiskLevel {
	signal := assess.SuicideRiskSignal(score.Kind, score.Items)
	if signal == 0 {
		return turnRisk
	}

	floored := risk.Floor(turnRisk, signal)
	if floored == turnRisk {
		return turnRisk
	}

	log.Info().Int("suicide_item", signal).Str("level", string(floored)).Msg("risk backstop applied")
	if _, err := e.db.RecordCrisisEvent(ctx, domain.CrisisEvent{
		UserID:      thread.UserID,
		Level:       floored,
		Description: fmt.Sprintf("PHQ-9 self-harm item scored %d", signal),
		ActionTaken: "risk_backstop_applied",
	}); err != nil {
		log.Error().Err(err).Msg("backstop event write failed")
		e.hooks.Emit(ctx, hooks.EventAuditWriteFailed, map[string]any{
			"user_id": thread.UserID,
			"error":   err.Error(),
		})
	}

	if risk.EscalationRequired(floored) && len(thread.Messages) > 0 {
		// Put the obligation in the conversation itself so the decision
		// node sees it on the next iteration. Appended to the scoring
		// result rather than as its own message so the tool-call pairing
		// the model API expects stays intact.
		last := &thread.Messages[len(thread.Messages)-1]
		if last.Role == domain.RoleTool {
			last.Content += "\n\nSafety check: the assessment indicates elevated self-harm risk. Retrieve the crisis protocol for this level and send a therapist alert."
		}
	}
	return floored
}

// refreshSummary rebuilds the rolling summary once enough new messages
// have accumulated. Failures are logged and skipped; the summary is an
// optimization, not state.
func (e *Engine) refreshSummary(ctx context.Context, thread *domain.Thread, log *logging.Logger) {
	if e.summarizer == nil || len(thread.Messages) < summaryInterval {
		return
	}
	if len(thread.Messages)%summaryInterval > 1 {
		return
	}
	summary, err := e.summarizer.Summarize(ctx, thread.Summary, thread.Messages)
	if err != nil {
		log.Warn().Err(err).Msg("summary refresh failed")
		return
	}
	thread.Summary = summary
}
