package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/havenproj/haven/internal/graph"
)

// wsFrame is one client-to-server WebSocket message.
type wsFrame struct {
	Type     string `json:"type"`
	UserID   int64  `json:"userId,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
	Message  string `json:"message,omitempty"`
	Approved *bool  `json:"approved,omitempty"`
	Approver string `json:"approver,omitempty"`
}

// wsReply is one server-to-client WebSocket message.
type wsReply struct {
	Type   string            `json:"type"`
	Result *graph.TurnResult `json:"result,omitempty"`
	Error  *ErrorShape       `json:"error,omitempty"`
}

// wsTurnTimeout bounds one assistant turn over a WebSocket connection.
const wsTurnTimeout = 5 * time.Minute

// handleWebSocket upgrades HTTP to WebSocket and runs the chat loop. Each
// frame is handled synchronously; a conversation turn completes before the
// next frame is read.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new websocket connection")

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		reply := s.dispatchFrame(r, frame)
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn().Err(err).Msg("websocket write error")
			return
		}
	}
}

func (s *Server) dispatchFrame(r *http.Request, frame wsFrame) wsReply {
	switch frame.Type {
	case "chat":
		return s.wsChat(r, frame)
	case "approval":
		return s.wsApproval(r, frame)
	default:
		return wsError("unknown_type", "unknown frame type: "+frame.Type)
	}
}

func (s *Server) wsChat(r *http.Request, frame wsFrame) wsReply {
	if frame.UserID <= 0 || frame.ThreadID == "" || frame.Message == "" {
		return wsError("invalid_params", "chat frames need userId, threadId and message")
	}

	ctx, cancel := context.WithTimeout(r.Context(), wsTurnTimeout)
	defer cancel()

	result, err := s.engine.Submit(ctx, frame.ThreadID, frame.UserID, frame.Message)
	switch {
	case errors.Is(err, graph.ErrApprovalPending):
		return wsError("approval_pending",
			"this conversation is awaiting a therapist decision and cannot accept messages")
	case err != nil:
		s.log.Error().Err(err).Str("thread", frame.ThreadID).Msg("chat turn failed")
		return wsError("turn_failed", "the assistant is unavailable, please retry")
	}
	return wsReply{Type: "turn", Result: result}
}

func (s *Server) wsApproval(r *http.Request, frame wsFrame) wsReply {
	if frame.ThreadID == "" || frame.Approved == nil {
		return wsError("invalid_params", "approval frames need threadId and approved")
	}

	ctx, cancel := context.WithTimeout(r.Context(), wsTurnTimeout)
	defer cancel()

	result, err := s.engine.ResolveApproval(ctx, frame.ThreadID, *frame.Approved, frame.Approver)
	switch {
	case errors.Is(err, graph.ErrNoPendingAction):
		return wsError("no_pending_action", "this conversation has no approval waiting")
	case err != nil:
		s.log.Error().Err(err).Str("thread", frame.ThreadID).Msg("approval resolution failed")
		return wsError("resolution_failed", err.Error())
	}
	return wsReply{Type: "turn", Result: result}
}

func wsError(code, message string) wsReply {
	return wsReply{Type: "error", Error: &ErrorShape{Code: code, Message: message}}
}
