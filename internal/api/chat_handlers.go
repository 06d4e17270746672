package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/store"
)

// answerTimeout bounds the whole retrieval/generation/persistence cycle so a
// stalled provider surfaces as a timeout instead of hanging the request.
const answerTimeout = 60 * time.Second

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
	UserID    int64  `json:"userId,omitempty"`
}

type askResponse struct {
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback,omitempty"`
}

func (h *Handler) AskAgentHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", core.ErrInvalidRequest))
		return
	}
	// The identity comes from the session cookie; a userId in the body may
	// only restate it, never impersonate someone else.
	if req.UserID != 0 && req.UserID != user.ID {
		writeError(w, fmt.Errorf("%w: userId does not match the authenticated user", core.ErrForbidden))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), answerTimeout)
	defer cancel()

	result, err := h.answerer.Answer(ctx, req.Question, req.SessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: result.Answer, Fallback: result.Fallback})
}

func (h *Handler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.answerer.History(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []store.ChatTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

type clearMemoryRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) ClearMemoryHandler(w http.ResponseWriter, r *http.Request) {
	var req clearMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", core.ErrInvalidRequest))
		return
	}

	if err := h.answerer.ClearMemory(r.Context(), req.SessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "memory cleared"})
}
