package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/queryhub-ai/queryhub/internal/auth"
	"github.com/queryhub-ai/queryhub/internal/core"
	"github.com/queryhub-ai/queryhub/internal/store"
)

type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func summarize(u *store.User) userSummary {
	return userSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", core.ErrInvalidRequest))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: username, email and password are required", core.ErrInvalidRequest))
		return
	}

	existing, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, fmt.Errorf("%w: user already exists", core.ErrInvalidRequest))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, fmt.Errorf("hashing password: %w", err))
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, hash, req.Role)
	if err != nil {
		writeError(w, fmt.Errorf("creating user: %w", err))
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Role)
	if err != nil {
		writeError(w, fmt.Errorf("generating token: %w", err))
		return
	}
	h.setSessionCookie(w, token)

	log.WithFields(log.Fields{"user": user.ID, "role": user.Role}).Info("User registered")
	writeJSON(w, http.StatusCreated, summarize(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", core.ErrInvalidRequest))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: email and password are required", core.ErrInvalidRequest))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, fmt.Errorf("%w: invalid email or password", core.ErrUnauthorized))
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Role)
	if err != nil {
		writeError(w, fmt.Errorf("generating token: %w", err))
		return
	}
	h.setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, summarize(user))
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	writeJSON(w, http.StatusOK, summarize(user))
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
