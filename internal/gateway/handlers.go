package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/graph"
	"github.com/havenproj/haven/internal/store"
)

// ErrorShape is the JSON body of every non-2xx response.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]ErrorShape{"error": {Code: code, Message: message}})
}

// decodeAndValidate parses the request body into target and runs struct
// validation. A false return means the error response was already written.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON: "+err.Error())
		return false
	}
	if err := s.validate.Struct(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
		return false
	}
	return true
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_params", "user id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "no such route: "+r.URL.Path)
}

type chatRequest struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	ThreadID string `json:"threadId" validate:"required,max=128"`
	Message  string `json:"message" validate:"required,max=8192"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.engine.Submit(r.Context(), req.ThreadID, req.UserID, req.Message)
	switch {
	case errors.Is(err, graph.ErrApprovalPending):
		writeError(w, http.StatusConflict, "approval_pending",
			"this conversation is awaiting a therapist decision and cannot accept messages")
		return
	case err != nil:
		s.log.Error().Err(err).Str("thread", req.ThreadID).Msg("chat turn failed")
		writeError(w, http.StatusBadGateway, "turn_failed", "the assistant is unavailable, please retry")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type approvalRequest struct {
	ThreadID string `json:"threadId" validate:"required,max=128"`
	Approved *bool  `json:"approved" validate:"required"`
	Approver string `json:"approver" validate:"omitempty,max=256"`
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.engine.ResolveApproval(r.Context(), req.ThreadID, *req.Approved, req.Approver)
	switch {
	case errors.Is(err, graph.ErrNoPendingAction):
		writeError(w, http.StatusConflict, "no_pending_action",
			"this conversation has no approval waiting, the decision may already be applied")
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "unknown conversation: "+req.ThreadID)
		return
	case err != nil:
		s.log.Error().Err(err).Str("thread", req.ThreadID).Msg("approval resolution failed")
		writeError(w, http.StatusInternalServerError, "resolution_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("thread")
	thread, err := s.db.GetThread(r.Context(), threadID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "unknown conversation: "+threadID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

type createUserRequest struct {
	Name           string `json:"name" validate:"required,max=256"`
	TherapistEmail string `json:"therapistEmail" validate:"omitempty,email"`
	ConsentLevel   string `json:"consentLevel" validate:"omitempty,oneof=basic full"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.db.CreateUser(r.Context(), domain.User{
		Name:           req.Name,
		TherapistEmail: req.TherapistEmail,
		ConsentLevel:   req.ConsentLevel,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	user, err := s.db.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name           string `json:"name" validate:"required,max=256"`
	TherapistEmail string `json:"therapistEmail" validate:"omitempty,email"`
	ConsentLevel   string `json:"consentLevel" validate:"omitempty,oneof=basic full"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user := domain.User{
		ID:             id,
		Name:           req.Name,
		TherapistEmail: req.TherapistEmail,
		ConsentLevel:   req.ConsentLevel,
	}
	err := s.db.UpdateUser(r.Context(), user)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "unknown user")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	updated, err := s.db.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	threads, err := s.db.ListThreads(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": threads})
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	recs, err := s.db.ListAllAssessments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": recs})
}

func (s *Server) handleListCrisisEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	events, err := s.db.ListCrisisEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"crisisEvents": events})
}
